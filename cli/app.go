// Package cli contains the colorblob command line tools: detect-blobs, which runs the detector
// over a single image, and colorblob-ctl, which drives a running daemon's control channel.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"go.viam.com/colorblob/config"
)

const (
	// detect-blobs flags.
	detectFlagWidth     = "width"
	detectFlagHeight    = "height"
	detectFlagLayout    = "layout"
	detectFlagOut       = "out"
	detectFlagPNG       = "png"
	detectFlagJSON      = "json"
	detectFlagMaxRuns   = "max-runs"
	detectFlagMaxBlobs  = "max-blobs"
	detectFlagMinArea   = "min-area"
	detectFlagMergeRows = "merge-rows"
	detectFlagThickness = "thickness"
	detectFlagColor     = "color"

	// colorblob-ctl flags.
	controlFlagAddress = "address"
	controlFlagTimeout = "timeout"

	thresholdArgsUsage = "<y_low> <y_high> <u_low> <u_high> <v_low> <v_high>"
)

// detectBoxThickness matches the thick boxes the tool has always drawn so they survive
// downscaled viewing.
const detectBoxThickness = 30

// NewDetectApp returns the detect-blobs command writing results to out and warnings to errOut.
func NewDetectApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "detect-blobs",
		Usage:     "detect color blobs in a .yuv, .jpg or .png image and draw their bounding boxes",
		UsageText: "detect-blobs [options] <in.yuv|in.jpg|in.png> " + thresholdArgsUsage,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  detectFlagWidth,
				Usage: "frame width of a .yuv input; guessed from the file size when omitted",
			},
			&cli.IntFlag{
				Name:  detectFlagHeight,
				Usage: "frame height of a .yuv input; guessed from the file size when omitted",
			},
			&cli.StringFlag{
				Name:  detectFlagLayout,
				Value: "yuv420",
				Usage: "chroma layout of a .yuv input with an explicit size: yuv420, yuv422 or yuv444",
			},
			&cli.StringFlag{
				Name:  detectFlagOut,
				Value: "out.yuv",
				Usage: "where to write the frame with boxes drawn, as raw yuv",
			},
			&cli.StringFlag{
				Name:  detectFlagPNG,
				Usage: "also write a labeled luma overlay to `FILE`",
			},
			&cli.BoolFlag{
				Name:  detectFlagJSON,
				Usage: "print the blobs as json",
			},
			&cli.IntFlag{
				Name:  detectFlagMaxRuns,
				Value: config.DefaultMaxRuns,
				Usage: "run capacity of the detector",
			},
			&cli.IntFlag{
				Name:  detectFlagMaxBlobs,
				Value: config.DefaultMaxBlobs,
				Usage: "how many of the largest blobs to keep",
			},
			&cli.IntFlag{
				Name:  detectFlagMinArea,
				Usage: "drop blobs with at most this many pixels",
			},
			&cli.BoolFlag{
				Name:  detectFlagMergeRows,
				Value: true,
				Usage: "merge overlapping runs of adjacent rows into one blob",
			},
			&cli.IntFlag{
				Name:  detectFlagThickness,
				Value: detectBoxThickness,
				Usage: "bounding box thickness in pixels",
			},
			&cli.IntSliceFlag{
				Name:  detectFlagColor,
				Value: cli.NewIntSlice(int(config.DefaultBoxColor.Y), int(config.DefaultBoxColor.U), int(config.DefaultBoxColor.V)),
				Usage: "bounding box color as y,u,v",
			},
		},
		Action: DetectAction,
	}
}

// NewControlApp returns the colorblob-ctl command writing results to out and warnings to errOut.
func NewControlApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "colorblob-ctl",
		Usage:           "adjust a running colorblob daemon",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    controlFlagAddress,
				Aliases: []string{"a"},
				Value:   "localhost" + config.DefaultListenAddress,
				Usage:   "control channel address of the daemon",
			},
			&cli.DurationFlag{
				Name:  controlFlagTimeout,
				Value: 5 * time.Second,
				Usage: "how long to wait for the connection",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "thresholds",
				Usage:     "set the detection thresholds",
				ArgsUsage: thresholdArgsUsage,
				Action:    ThresholdsAction,
			},
			{
				Name:      "enable",
				Usage:     "turn a flag on",
				ArgsUsage: "<" + flagNamesUsage() + ">",
				Action:    FlagAction(true),
			},
			{
				Name:      "disable",
				Usage:     "turn a flag off",
				ArgsUsage: "<" + flagNamesUsage() + ">",
				Action:    FlagAction(false),
			},
			{
				Name:      "set",
				Usage:     "send any control message, e.g. `set saturation 20` or `set roi 0 0 0.5 0.5`",
				ArgsUsage: "<opcode> [values...]",
				Action:    SetAction,
			},
		},
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "Warning: "+format+"\n", a...)
}
