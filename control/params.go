package control

import (
	"go.viam.com/colorblob/vision/blob"
)

// ROI is a normalized region of interest on the sensor.
type ROI struct {
	X, Y, W, H float32
}

// CameraParams are the sensor settings a client can request. They are recorded here for the
// camera driver; nothing in this package talks to hardware.
type CameraParams struct {
	Saturation           int32
	Sharpness            int32
	Contrast             int32
	Brightness           int32
	ISO                  int32
	MeteringMode         int32
	VideoStabilisation   bool
	ExposureCompensation int32
	ExposureMode         int32
	AWBMode              int32
	AWBGainR             float32
	AWBGainB             float32
	ImageFX              int32
	ColourFXEnable       bool
	ColourFXU            int32
	ColourFXV            int32
	Rotation             int32
	HFlip                bool
	VFlip                bool
	ROI                  ROI
	ShutterSpeed         int32
	DRC                  int32
	StatsPass            bool
}

// Params is everything the control channel can change.
type Params struct {
	Camera CameraParams

	TestImageEnable bool
	YUVWriteEnable  bool
	JPGWriteEnable  bool
	DetectEnable    bool
	MergeRowsEnable bool

	Thresholds blob.Thresholds
}

// DefaultCameraParams mirrors the camera's power-on settings.
func DefaultCameraParams() CameraParams {
	return CameraParams{
		Brightness:   50,
		ExposureMode: 1,
		AWBMode:      1,
		AWBGainR:     1,
		AWBGainB:     1,
		ColourFXU:    128,
		ColourFXV:    128,
		ROI:          ROI{W: 1, H: 1},
	}
}

// DefaultParams returns parameters with detection and row merging on and thresholds that match
// every pixel.
func DefaultParams() Params {
	return Params{
		Camera:          DefaultCameraParams(),
		DetectEnable:    true,
		MergeRowsEnable: true,
		Thresholds:      blob.MatchAll,
	}
}

// DetectParams returns the detector input for these parameters.
func (p Params) DetectParams(minArea int) blob.DetectParams {
	return blob.DetectParams{
		Thresholds: p.Thresholds,
		MergeRows:  p.MergeRowsEnable,
		MinArea:    minArea,
	}
}
