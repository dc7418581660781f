package utils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestExpandHomeDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	test.That(t, ExpandHomeDir("~"), test.ShouldEqual, "/home/tester")
	test.That(t, ExpandHomeDir("~/frames/out.yuv"), test.ShouldEqual, "/home/tester/frames/out.yuv")
	test.That(t, ExpandHomeDir("/tmp/~/x"), test.ShouldEqual, "/tmp/~/x")
	test.That(t, ExpandHomeDir("~other/x"), test.ShouldEqual, "~other/x")
	test.That(t, ExpandHomeDir(""), test.ShouldEqual, "")
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	test.That(t, EnsureDir(dir), test.ShouldBeNil)
	info, err := os.Stat(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.IsDir(), test.ShouldBeTrue)
	test.That(t, EnsureDir(dir), test.ShouldBeNil)

	file := filepath.Join(t.TempDir(), "file")
	test.That(t, os.WriteFile(file, nil, 0o600), test.ShouldBeNil)
	test.That(t, EnsureDir(filepath.Join(file, "sub")), test.ShouldNotBeNil)
}
