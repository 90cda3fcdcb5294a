package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	SampleRate    = 8000
	FrameDuration = 20 * time.Millisecond
	// FrameBytes is one FrameDuration of 8 kHz mu-law.
	FrameBytes = SampleRate * int(FrameDuration/time.Millisecond) / 1000

	mulawBias = 0x84
	mulawClip = 32635
)

// DecodeMulaw expands one G.711 mu-law byte and applies the x4 line gain, clamped to int16.
func DecodeMulaw(b byte) int16 {
	b = ^b
	exponent := int(b&0x70) >> 4
	mantissa := int(b & 0x0F)

	linear := (((mantissa << 3) + mulawBias) << exponent) - mulawBias
	if b&0x80 != 0 {
		linear = -linear
	}
	return clamp16(linear << 2)
}

func EncodeMulaw(sample int16) byte {
	s := int(sample)
	sign := 0
	if s < 0 {
		s = -s
		sign = 0x80
	}
	if s > mulawClip {
		s = mulawClip
	}
	s += mulawBias

	exponent := 7
	for mask := 0x4000; s&mask == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := (s >> (exponent + 3)) & 0x0F
	return ^byte(sign | exponent<<4 | mantissa)
}

// MulawToPCM decodes mu-law bytes into little-endian 16-bit PCM, preserving sample order.
func MulawToPCM(mulaw []byte) []byte {
	pcm := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(DecodeMulaw(b)))
	}
	return pcm
}

func Int16ToMulaw(samples []int16) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		out[i] = EncodeMulaw(s)
	}
	return out
}

func PCMBytesToInt16(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

func ResampleInt16(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(toRate) / float64(fromRate)
	out := make([]int16, int(math.Ceil(float64(len(samples))*ratio)))
	for i := range out {
		srcPos := float64(i) / ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		switch {
		case srcIdx+1 < len(samples):
			v := float64(samples[srcIdx])*(1-frac) + float64(samples[srcIdx+1])*frac
			out[i] = clamp16(int(math.Round(v)))
		case srcIdx < len(samples):
			out[i] = samples[srcIdx]
		}
	}
	return out
}

// SplitFrames slices outbound audio into frameSize pieces; the last frame may be short.
func SplitFrames(data []byte, frameSize int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	if frameSize <= 0 {
		return [][]byte{data}
	}

	frames := make([][]byte, 0, (len(data)+frameSize-1)/frameSize)
	for start := 0; start < len(data); start += frameSize {
		end := min(start+frameSize, len(data))
		frames = append(frames, data[start:end])
	}
	return frames
}

func clamp16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
