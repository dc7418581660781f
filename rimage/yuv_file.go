package rimage

import (
	"os"

	"github.com/pkg/errors"
)

// cameraFrameSizes are the sensor modes the Raspberry Pi camera produces, used to guess the
// geometry of headerless I420 dumps.
var cameraFrameSizes = [][2]int{
	{1920, 1080},
	{2592, 1944},
	{1296, 972},
	{1296, 730},
	{640, 480},
	{3280, 2464},
	{1640, 1232},
	{1640, 922},
	{1280, 720},
}

// GuessFrameSize returns the camera frame size whose I420 encoding is exactly `numBytes` long.
func GuessFrameSize(numBytes int) (width, height int, ok bool) {
	for _, size := range cameraFrameSizes {
		if YUV420.FrameSize(size[0], size[1]) == numBytes {
			return size[0], size[1], true
		}
	}
	return 0, 0, false
}

// ReadYUVFile reads a raw planar frame of known geometry. Extra trailing bytes are ignored so the
// first frame of a multi-frame dump can be read directly.
func ReadYUVFile(path string, width, height int, layout YUVLayout) (*YUVFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	frame := &YUVFrame{Width: width, Height: height, Layout: layout, Pix: data}
	if err := frame.Validate(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	frame.Pix = frame.Pix[:layout.FrameSize(width, height)]
	return frame, nil
}

// ReadYUVFileGuessSize reads a single headerless I420 frame, inferring its geometry from the file
// size.
func ReadYUVFileGuessSize(path string) (*YUVFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	width, height, ok := GuessFrameSize(len(data))
	if !ok {
		return nil, errors.Errorf("read %d bytes from %s; unrecognized file size", len(data), path)
	}
	return &YUVFrame{Width: width, Height: height, Layout: YUV420, Pix: data}, nil
}

// WriteYUVFile writes the frame's planes to path.
func WriteYUVFile(path string, frame *YUVFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	return os.WriteFile(path, frame.Pix[:frame.Layout.FrameSize(frame.Width, frame.Height)], 0o644)
}
