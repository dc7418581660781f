// Package control implements the TCP channel remote clients use to adjust camera settings,
// detection thresholds and capture flags while the daemon runs.
//
// Every read from a connection is one message of at most MaxMessageSize bytes. The first byte is
// an Opcode. Integer and float payloads are big-endian 32-bit words starting at byte 4; the
// threshold message instead carries six bytes starting at byte 1. Messages are never
// acknowledged.
//
// A message only has to be long enough for the words its opcode reads. ROI reads four floats, so
// 20 bytes are enough; the Raspberry Pi camera daemon this protocol comes from required 24 bytes
// for it, and clients that pad ROI to 24 bytes are still accepted.
package control

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MaxMessageSize is the largest message read from a connection.
const MaxMessageSize = 64

// payloadOffset is where the first 32-bit payload word starts.
const payloadOffset = 4

// Opcode identifies a control message.
type Opcode byte

// The opcodes, in wire order.
const (
	OpQuit Opcode = iota
	OpSaturation
	OpSharpness
	OpContrast
	OpBrightness
	OpISO
	OpMeteringMode
	OpVideoStabilisation
	OpExposureCompensation
	OpExposureMode
	OpAWBMode
	OpAWBGains
	OpImageFX
	OpColourFX
	OpRotation
	OpFlips
	OpROI
	OpShutterSpeed
	OpDRC
	OpStatsPass
	OpTestImageEnable
	OpYUVWriteEnable
	OpJPGWriteEnable
	OpDetectYUVEnable
	OpBlobYUV
	OpMergeRowsEnable
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpQuit:                 "QUIT",
	OpSaturation:           "SATURATION",
	OpSharpness:            "SHARPNESS",
	OpContrast:             "CONTRAST",
	OpBrightness:           "BRIGHTNESS",
	OpISO:                  "ISO",
	OpMeteringMode:         "METERING_MODE",
	OpVideoStabilisation:   "VIDEO_STABILISATION",
	OpExposureCompensation: "EXPOSURE_COMPENSATION",
	OpExposureMode:         "EXPOSURE_MODE",
	OpAWBMode:              "AWB_MODE",
	OpAWBGains:             "AWB_GAINS",
	OpImageFX:              "IMAGE_FX",
	OpColourFX:             "COLOUR_FX",
	OpRotation:             "ROTATION",
	OpFlips:                "FLIPS",
	OpROI:                  "ROI",
	OpShutterSpeed:         "SHUTTER_SPEED",
	OpDRC:                  "DRC",
	OpStatsPass:            "STATS_PASS",
	OpTestImageEnable:      "TEST_IMAGE_ENABLE",
	OpYUVWriteEnable:       "YUV_WRITE_ENABLE",
	OpJPGWriteEnable:       "JPG_WRITE_ENABLE",
	OpDetectYUVEnable:      "DETECT_YUV_ENABLE",
	OpBlobYUV:              "BLOB_YUV",
	OpMergeRowsEnable:      "MERGE_ROWS_ENABLE",
}

func (o Opcode) String() string {
	if o < numOpcodes {
		return opcodeNames[o]
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(o))
}

// payloadLen returns the minimum message length for the opcode. Unknown opcodes need only
// their opcode byte.
func (o Opcode) payloadLen() int {
	switch o {
	case OpQuit:
		return 1
	case OpBlobYUV:
		return 7
	case OpAWBGains, OpFlips:
		return payloadOffset + 2*4
	case OpColourFX:
		return payloadOffset + 3*4
	case OpROI:
		return payloadOffset + 4*4
	default:
		if o < numOpcodes {
			return payloadOffset + 4
		}
		return 1
	}
}

// ParseOpcode looks up an opcode by name. Case is ignored and dashes may stand in for
// underscores, so "awb-gains" names OpAWBGains.
func ParseOpcode(name string) (Opcode, error) {
	want := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	for op := OpQuit; op < numOpcodes; op++ {
		if opcodeNames[op] == want {
			return op, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownOpcode, "%q", name)
}

// Words returns how many 32-bit payload words the opcode carries. OpQuit and OpBlobYUV carry
// none.
func (o Opcode) Words() int {
	if o == OpQuit || o == OpBlobYUV || o >= numOpcodes {
		return 0
	}
	return (o.payloadLen() - payloadOffset) / 4
}

// FloatPayload reports whether the opcode's payload words are floats rather than integers.
func (o Opcode) FloatPayload() bool {
	return o == OpAWBGains || o == OpROI
}
