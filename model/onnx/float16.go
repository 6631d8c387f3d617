package onnx

import (
	"encoding/binary"

	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16LookupTable[i] = float16.Frombits(uint16(i)).Float32()
	}
}

// encodeFloat16 packs float32 values as little endian IEEE half precision,
// the byte layout onnxruntime expects for float16 tensors
func encodeFloat16(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], float16.Fromfloat32(v).Bits())
	}
}

// decodeFloat16 unpacks little endian half precision bytes into float32
func decodeFloat16(src []byte) []float32 {

	out := make([]float32, len(src)/2)

	for i := range out {
		out[i] = f16LookupTable[binary.LittleEndian.Uint16(src[2*i:])]
	}

	return out
}
