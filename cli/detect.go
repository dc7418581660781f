package cli

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/rimage"
	"go.viam.com/colorblob/utils"
	"go.viam.com/colorblob/vision/blob"
)

var thresholdNames = []string{"y_low", "y_high", "u_low", "u_high", "v_low", "v_high"}

// DetectAction reads an image, detects blobs, prints them and writes the frame with their bounding
// boxes drawn.
func DetectAction(c *cli.Context) error {
	if c.Args().Len() != 1+len(thresholdNames) {
		return errors.Errorf("expected an input file and %s, got %d arguments", thresholdArgsUsage, c.Args().Len())
	}
	inPath := c.Args().First()
	thresholds, err := parseThresholds(c.Args().Tail())
	if err != nil {
		return err
	}
	boxColor, err := parseColor(c.IntSlice(detectFlagColor))
	if err != nil {
		return err
	}
	frame, err := readFrame(inPath, c.Int(detectFlagWidth), c.Int(detectFlagHeight), c.String(detectFlagLayout))
	if err != nil {
		return err
	}

	bl, err := blob.NewBlobList(c.Int(detectFlagMaxRuns), c.Int(detectFlagMaxBlobs))
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(bl.Close)

	params := blob.DetectParams{
		Thresholds: thresholds,
		MergeRows:  c.Bool(detectFlagMergeRows),
		MinArea:    c.Int(detectFlagMinArea),
	}
	n, err := bl.Detect(params, frame)
	switch {
	case errors.Is(err, blob.ErrCapacityExceeded):
		warningf(c.App.ErrWriter, "%v; results are incomplete", err)
	case err != nil:
		return err
	}
	blobs := bl.Blobs()[:n]

	if c.Bool(detectFlagJSON) {
		if err := printBlobsJSON(c.App.Writer, blobs); err != nil {
			return err
		}
	} else {
		printBlobs(c.App.Writer, blobs)
	}

	if pngPath := c.String(detectFlagPNG); pngPath != "" {
		if err := rimage.WriteOverlayPNG(pngPath, frame, blob.Annotations(blobs)); err != nil {
			return err
		}
	}
	if err := blob.DrawBoundingBoxes(bl, c.Int(detectFlagThickness), boxColor, frame); err != nil {
		return err
	}
	outPath := c.String(detectFlagOut)
	if err := rimage.WriteYUVFile(outPath, frame); err != nil {
		return errors.Wrapf(err, "can't open %s for writing", outPath)
	}
	return nil
}

// readFrame loads a raw .yuv file, guessing an I420 size from the file length unless one is given,
// or decodes any other file as an image.
func readFrame(path string, width, height int, layoutName string) (*rimage.YUVFrame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yuv" && ext != "" {
		return rimage.ReadImageFile(path)
	}
	if width == 0 && height == 0 {
		return rimage.ReadYUVFileGuessSize(path)
	}
	layout, err := rimage.ParseYUVLayout(layoutName)
	if err != nil {
		return nil, err
	}
	return rimage.ReadYUVFile(path, width, height, layout)
}

func parseThresholds(args []string) (blob.Thresholds, error) {
	values := make([]uint8, len(thresholdNames))
	for i, arg := range args {
		v, err := parseByte(thresholdNames[i], arg)
		if err != nil {
			return blob.Thresholds{}, err
		}
		values[i] = v
	}
	return blob.Thresholds{
		YLow: values[0], YHigh: values[1],
		ULow: values[2], UHigh: values[3],
		VLow: values[4], VHigh: values[5],
	}, nil
}

func parseByte(name, arg string) (uint8, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	if v < 0 || v > 255 {
		return 0, utils.NewOutOfRangeError(name, v, 0, 255)
	}
	return uint8(v), nil
}

func parseColor(c []int) (rimage.YUV, error) {
	if len(c) != 3 {
		return rimage.YUV{}, errors.Errorf("color needs 3 components, got %d", len(c))
	}
	if bad, ok := lo.Find(c, func(v int) bool { return v < 0 || v > 255 }); ok {
		return rimage.YUV{}, utils.NewOutOfRangeError("color component", bad, 0, 255)
	}
	return rimage.YUV{Y: uint8(c[0]), U: uint8(c[1]), V: uint8(c[2])}, nil
}

func printBlobs(w io.Writer, blobs []blob.Blob) {
	printf(w, "found %d blobs", len(blobs))
	for i, b := range blobs {
		printf(w, "%4d: area %d, box %v, centroid (%.1f, %.1f)", i, b.Area, b.Rect(), b.CentroidCol, b.CentroidRow)
	}
}

func printBlobsJSON(w io.Writer, blobs []blob.Blob) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(blobs)
}
