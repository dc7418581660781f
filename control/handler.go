package control

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/colorblob/utils"
)

var (
	// ErrShortMessage is returned for a message too short for its opcode's payload.
	ErrShortMessage = errors.New("message too short")
	// ErrUnknownOpcode is returned for an opcode this server does not know.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

func intWord(msg []byte, i int) int32 {
	off := payloadOffset + 4*i
	return int32(binary.BigEndian.Uint32(msg[off : off+4]))
}

func floatWord(msg []byte, i int) float32 {
	off := payloadOffset + 4*i
	return math.Float32frombits(binary.BigEndian.Uint32(msg[off : off+4]))
}

func clampFloat(low, high, value float32) float32 {
	if value != value { // NaN
		return low
	}
	return utils.Clamp(low, high, value)
}

// Handle decodes one message and applies it to the store. It reports quit for OpQuit. A short
// message or unknown opcode returns an error and leaves the store untouched.
func (s *Store) Handle(msg []byte) (quit bool, err error) {
	if len(msg) == 0 {
		return false, errors.Wrap(ErrShortMessage, "empty message")
	}
	op := Opcode(msg[0])
	if op >= numOpcodes {
		return false, errors.Wrapf(ErrUnknownOpcode, "opcode %d", msg[0])
	}
	if need := op.payloadLen(); len(msg) < need {
		return false, errors.Wrapf(ErrShortMessage, "%s needs %d bytes, got %d", op, need, len(msg))
	}
	if op == OpQuit {
		return true, nil
	}
	return false, s.Update(func(p *Params) error {
		apply(op, msg, p)
		return nil
	})
}

// apply writes a validated message into p, clamping every value into its legal range.
func apply(op Opcode, msg []byte, p *Params) {
	cam := &p.Camera
	switch op {
	case OpSaturation:
		cam.Saturation = utils.Clamp(-100, 100, intWord(msg, 0))
	case OpSharpness:
		cam.Sharpness = utils.Clamp(-100, 100, intWord(msg, 0))
	case OpContrast:
		cam.Contrast = utils.Clamp(-100, 100, intWord(msg, 0))
	case OpBrightness:
		cam.Brightness = utils.Clamp(0, 100, intWord(msg, 0))
	case OpISO:
		cam.ISO = intWord(msg, 0)
	case OpMeteringMode:
		cam.MeteringMode = utils.Clamp(0, 3, intWord(msg, 0))
	case OpVideoStabilisation:
		cam.VideoStabilisation = utils.ClampBool(intWord(msg, 0))
	case OpExposureCompensation:
		cam.ExposureCompensation = utils.Clamp(-10, 10, intWord(msg, 0))
	case OpExposureMode:
		cam.ExposureMode = utils.Clamp(0, 12, intWord(msg, 0))
	case OpAWBMode:
		cam.AWBMode = utils.Clamp(0, 9, intWord(msg, 0))
	case OpAWBGains:
		cam.AWBGainR = clampFloat(0.00001, 1, floatWord(msg, 0))
		cam.AWBGainB = clampFloat(0.00001, 1, floatWord(msg, 1))
	case OpImageFX:
		cam.ImageFX = utils.Clamp(0, 22, intWord(msg, 0))
	case OpColourFX:
		cam.ColourFXEnable = utils.ClampBool(intWord(msg, 0))
		cam.ColourFXU = utils.Clamp(0, 255, intWord(msg, 1))
		cam.ColourFXV = utils.Clamp(0, 255, intWord(msg, 2))
	case OpRotation:
		cam.Rotation = utils.Clamp(0, 359, intWord(msg, 0))
	case OpFlips:
		cam.HFlip = utils.ClampBool(intWord(msg, 0))
		cam.VFlip = utils.ClampBool(intWord(msg, 1))
	case OpROI:
		cam.ROI = ROI{
			X: clampFloat(0, 1, floatWord(msg, 0)),
			Y: clampFloat(0, 1, floatWord(msg, 1)),
			W: clampFloat(0, 1, floatWord(msg, 2)),
			H: clampFloat(0, 1, floatWord(msg, 3)),
		}
	case OpShutterSpeed:
		cam.ShutterSpeed = intWord(msg, 0)
	case OpDRC:
		cam.DRC = utils.Clamp(0, 3, intWord(msg, 0))
	case OpStatsPass:
		cam.StatsPass = utils.ClampBool(intWord(msg, 0))
	case OpTestImageEnable:
		p.TestImageEnable = utils.ClampBool(intWord(msg, 0))
	case OpYUVWriteEnable:
		p.YUVWriteEnable = utils.ClampBool(intWord(msg, 0))
	case OpJPGWriteEnable:
		p.JPGWriteEnable = utils.ClampBool(intWord(msg, 0))
	case OpDetectYUVEnable:
		p.DetectEnable = utils.ClampBool(intWord(msg, 0))
	case OpBlobYUV:
		p.Thresholds = blobThresholds(msg[1:7])
	case OpMergeRowsEnable:
		p.MergeRowsEnable = utils.ClampBool(intWord(msg, 0))
	}
}
