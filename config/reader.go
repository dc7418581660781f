package config

import (
	"bytes"
	"encoding/json"
	"io"
	"slices"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/colorblob/logging"
)

// Read reads a config from the given file, substituting ${VAR} references from the
// environment first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", filePath)
	}
	cfg, err := FromReader(filePath, bytes.NewReader(buf), logger)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config file %q", filePath)
	}
	return cfg, nil
}

// FromReader reads a config from r. originalPath is recorded on the config and may be empty.
// Unknown keys are logged and otherwise ignored. Defaults are applied before validation.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var attrs map[string]interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&attrs); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}

	cfg := &Config{ConfigFilePath: originalPath}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   cfg,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}
	if len(md.Unused) > 0 {
		unused := slices.Clone(md.Unused)
		slices.Sort(unused)
		logger.Warnw("ignoring unknown config keys", "path", originalPath, "keys", unused)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
