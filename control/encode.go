package control

import (
	"encoding/binary"
	"math"

	"go.viam.com/colorblob/vision/blob"
)

// EncodeInts builds a message carrying integer words.
func EncodeInts(op Opcode, values ...int32) []byte {
	msg := make([]byte, payloadOffset+4*len(values))
	msg[0] = byte(op)
	for i, v := range values {
		binary.BigEndian.PutUint32(msg[payloadOffset+4*i:], uint32(v))
	}
	return msg
}

// EncodeFloats builds a message carrying float words.
func EncodeFloats(op Opcode, values ...float32) []byte {
	msg := make([]byte, payloadOffset+4*len(values))
	msg[0] = byte(op)
	for i, v := range values {
		binary.BigEndian.PutUint32(msg[payloadOffset+4*i:], math.Float32bits(v))
	}
	return msg
}

// EncodeBool builds a single flag message.
func EncodeBool(op Opcode, on bool) []byte {
	if on {
		return EncodeInts(op, 1)
	}
	return EncodeInts(op, 0)
}

// EncodeThresholds builds an OpBlobYUV message.
func EncodeThresholds(t blob.Thresholds) []byte {
	return []byte{byte(OpBlobYUV), t.YLow, t.YHigh, t.ULow, t.UHigh, t.VLow, t.VHigh}
}

func blobThresholds(b []byte) blob.Thresholds {
	return blob.Thresholds{YLow: b[0], YHigh: b[1], ULow: b[2], UHigh: b[3], VLow: b[4], VHigh: b[5]}
}
