// Package sampleformat converts between the engine's internal 32-bit
// float PCM and every packed byte format the engine's decoders and
// backends trade in. Every converter here is a pure, stateless
// function, safe to call from any thread including the audio
// callback — the generalized form of the teacher's inline
// `float32(sample) / maxInt16` scaling in
// pkg/audiodevice/device/filedevice.go, extended to the full format
// set spec.md §3 names.
package sampleformat

import (
	"encoding/binary"
	"math"

	"github.com/ijakenorton/musac-go/pkg/audiospec"
)

type toFloatFunc func(dst []float32, src []byte) int
type fromFloatFunc func(dst []byte, src []float32) int

var toFloatTable = map[audiospec.Format]toFloatFunc{
	audiospec.FormatU8:    u8ToFloat,
	audiospec.FormatS8:    s8ToFloat,
	audiospec.FormatS16LE: makeIntToFloat(2, false, false),
	audiospec.FormatS16BE: makeIntToFloat(2, false, true),
	audiospec.FormatS32LE: makeIntToFloat(4, false, false),
	audiospec.FormatS32BE: makeIntToFloat(4, false, true),
	audiospec.FormatF32LE: f32leToFloat,
	audiospec.FormatF32BE: f32beToFloat,
}

var fromFloatTable = map[audiospec.Format]fromFloatFunc{
	audiospec.FormatU8:    floatToU8,
	audiospec.FormatS8:    floatToS8,
	audiospec.FormatS16LE: makeFloatToInt(2, false),
	audiospec.FormatS16BE: makeFloatToInt(2, true),
	audiospec.FormatS32LE: makeFloatToInt(4, false),
	audiospec.FormatS32BE: makeFloatToInt(4, true),
	audiospec.FormatF32LE: floatToF32le,
	audiospec.FormatF32BE: floatToF32be,
}

// ToFloat reads sampleCount samples of format from src and writes
// sampleCount floats into dst, in [-1.0, +1.0]. If src or dst is too
// short for sampleCount samples, it converts as many whole samples as
// both hold. Returns the number of samples actually converted, and
// false only if format is unsupported.
func ToFloat(dst []float32, src []byte, sampleCount int, format audiospec.Format) (int, bool) {
	fn, ok := toFloatTable[format]
	if !ok {
		return 0, false
	}
	stride := format.BytesPerSample()
	if len(src) < sampleCount*stride || len(dst) < sampleCount {
		sampleCount = min(len(src)/stride, len(dst))
	}
	if sampleCount <= 0 {
		return 0, true
	}
	return fn(dst[:sampleCount], src[:sampleCount*stride]), true
}

// FromFloat clamps src to [-1.0, +1.0] and writes it into dst in the
// given format. Returns the number of samples converted and false if
// format is unsupported.
func FromFloat(dst []byte, src []float32, format audiospec.Format) (int, bool) {
	fn, ok := fromFloatTable[format]
	if !ok {
		return 0, false
	}
	stride := format.BytesPerSample()
	sampleCount := min(len(src), len(dst)/stride)
	if sampleCount <= 0 {
		return 0, true
	}
	return fn(dst[:sampleCount*stride], src[:sampleCount]), true
}

func u8ToFloat(dst []float32, src []byte) int {
	for i := range dst {
		v := int(src[i]) - 128
		if v >= 0 {
			dst[i] = float32(v) / 127.0
		} else {
			dst[i] = float32(v) / 128.0
		}
	}
	return len(dst)
}

func floatToU8(dst []byte, src []float32) int {
	for i, s := range src {
		s = clamp(s)
		var v int
		if s >= 0 {
			v = int(s*127.0 + 0.5)
		} else {
			v = int(s*128.0 - 0.5)
		}
		dst[i] = byte(v + 128)
	}
	return len(src)
}

func s8ToFloat(dst []float32, src []byte) int {
	for i := range dst {
		v := int(int8(src[i]))
		if v >= 0 {
			dst[i] = float32(v) / 127.0
		} else {
			dst[i] = float32(v) / 128.0
		}
	}
	return len(dst)
}

func floatToS8(dst []byte, src []float32) int {
	for i, s := range src {
		s = clamp(s)
		var v int
		if s >= 0 {
			v = int(s*127.0 + 0.5)
		} else {
			v = int(s*128.0 - 0.5)
		}
		dst[i] = byte(int8(v))
	}
	return len(src)
}

// makeIntToFloat builds a to-float converter for signed integer
// formats of width bytes, byte-swapping first when bigEndian is set.
func makeIntToFloat(width int, _ bool, bigEndian bool) toFloatFunc {
	maxPos := float64(int64(1)<<(width*8-1) - 1)
	maxNeg := float64(int64(1) << (width*8 - 1))
	return func(dst []float32, src []byte) int {
		for i := range dst {
			raw := src[i*width : i*width+width]
			var v int64
			switch width {
			case 2:
				u := binary.LittleEndian.Uint16(raw)
				if bigEndian {
					u = binary.BigEndian.Uint16(raw)
				}
				v = int64(int16(u))
			case 4:
				u := binary.LittleEndian.Uint32(raw)
				if bigEndian {
					u = binary.BigEndian.Uint32(raw)
				}
				v = int64(int32(u))
			}
			if v >= 0 {
				dst[i] = float32(float64(v) / maxPos)
			} else {
				dst[i] = float32(float64(v) / maxNeg)
			}
		}
		return len(dst)
	}
}

func makeFloatToInt(width int, bigEndian bool) fromFloatFunc {
	maxPos := float64(int64(1)<<(width*8-1) - 1)
	maxNeg := float64(int64(1) << (width*8 - 1))
	return func(dst []byte, src []float32) int {
		for i, s := range src {
			fs := float64(clamp(s))
			var v int64
			if fs >= 0 {
				v = int64(fs*maxPos + 0.5)
			} else {
				v = int64(fs*maxNeg - 0.5)
			}
			raw := dst[i*width : i*width+width]
			switch width {
			case 2:
				if bigEndian {
					binary.BigEndian.PutUint16(raw, uint16(int16(v)))
				} else {
					binary.LittleEndian.PutUint16(raw, uint16(int16(v)))
				}
			case 4:
				if bigEndian {
					binary.BigEndian.PutUint32(raw, uint32(int32(v)))
				} else {
					binary.LittleEndian.PutUint32(raw, uint32(int32(v)))
				}
			}
		}
		return len(src)
	}
}

func f32leToFloat(dst []float32, src []byte) int {
	for i := range dst {
		bits := binary.LittleEndian.Uint32(src[i*4 : i*4+4])
		dst[i] = math.Float32frombits(bits)
	}
	return len(dst)
}

func f32beToFloat(dst []float32, src []byte) int {
	for i := range dst {
		bits := binary.BigEndian.Uint32(src[i*4 : i*4+4])
		dst[i] = math.Float32frombits(bits)
	}
	return len(dst)
}

func floatToF32le(dst []byte, src []float32) int {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(s))
	}
	return len(src)
}

func floatToF32be(dst []byte, src []float32) int {
	for i, s := range src {
		binary.BigEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(s))
	}
	return len(src)
}

func clamp(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
