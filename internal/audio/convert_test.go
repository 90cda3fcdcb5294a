package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeMulaw_Silence(t *testing.T) {
	for _, b := range []byte{0xFF, 0x7F} {
		if got := DecodeMulaw(b); got != 0 {
			t.Errorf("DecodeMulaw(%#x) = %d, want 0", b, got)
		}
	}
}

func TestDecodeMulaw_Deterministic(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if DecodeMulaw(b) != DecodeMulaw(b) {
			t.Fatalf("DecodeMulaw(%#x) not deterministic", b)
		}
	}
}

func TestDecodeMulaw_Clamps(t *testing.T) {
	if got := DecodeMulaw(0x80); got != math.MaxInt16 {
		t.Errorf("loudest positive code = %d, want %d", got, math.MaxInt16)
	}
	if got := DecodeMulaw(0x00); got != math.MinInt16 {
		t.Errorf("loudest negative code = %d, want %d", got, math.MinInt16)
	}
}

func TestDecodeMulaw_Symmetric(t *testing.T) {
	for i := 0x80; i < 0x100; i++ {
		pos := DecodeMulaw(byte(i))
		neg := DecodeMulaw(byte(i) & 0x7F)
		if int(pos) != -int(neg) && pos != math.MaxInt16 {
			t.Errorf("code %#x: positive %d, negative %d", i, pos, neg)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []int16{500, -500, 1000, -1000, 4000, -4000, 8000} {
		got := float64(DecodeMulaw(EncodeMulaw(s)))
		want := float64(s) * 4
		if math.Abs(got-want) > math.Abs(want)*0.1 {
			t.Errorf("round trip %d: got %v, want ~%v", s, got, want)
		}
	}
	if EncodeMulaw(0) != 0xFF {
		t.Errorf("EncodeMulaw(0) = %#x, want 0xff", EncodeMulaw(0))
	}
}

func TestMulawToPCM_PreservesOrder(t *testing.T) {
	in := []byte{0xFF, 0xCE, 0x4E, 0x80}
	pcm := MulawToPCM(in)
	if len(pcm) != len(in)*2 {
		t.Fatalf("expected %d bytes, got %d", len(in)*2, len(pcm))
	}
	samples := PCMBytesToInt16(pcm)
	for i, b := range in {
		if samples[i] != DecodeMulaw(b) {
			t.Errorf("sample %d = %d, want %d", i, samples[i], DecodeMulaw(b))
		}
	}
}

func TestMulawToPCM_Empty(t *testing.T) {
	if out := MulawToPCM(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(out))
	}
}

func TestPCMBytesToInt16(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0xFF, 0xFF}
	samples := PCMBytesToInt16(pcm)
	expected := []int16{0, 32767, -32768, -1}
	if len(samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(samples))
	}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("sample %d: expected %d, got %d", i, expected[i], samples[i])
		}
	}
}

func TestResampleInt16(t *testing.T) {
	same := []int16{1, 2, 3}
	if out := ResampleInt16(same, 8000, 8000); len(out) != 3 {
		t.Errorf("same rate should return input, got len %d", len(out))
	}

	out := ResampleInt16([]int16{0, 100, 200, 300}, 16000, 8000)
	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(out))
	}
	if out[0] != 0 || out[1] != 200 {
		t.Errorf("unexpected downsample result %v", out)
	}
}

func TestSplitFrames(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		frameSize int
		wantLens  []int
	}{
		{"empty", 0, FrameBytes, nil},
		{"exact", 320, FrameBytes, []int{160, 160}},
		{"remainder", 400, FrameBytes, []int{160, 160, 80}},
		{"short", 10, FrameBytes, []int{10}},
		{"no framing", 50, 0, []int{50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := SplitFrames(make([]byte, tt.size), tt.frameSize)
			if len(frames) != len(tt.wantLens) {
				t.Fatalf("expected %d frames, got %d", len(tt.wantLens), len(frames))
			}
			for i, f := range frames {
				if len(f) != tt.wantLens[i] {
					t.Errorf("frame %d: expected %d bytes, got %d", i, tt.wantLens[i], len(f))
				}
			}
		})
	}
}

func TestWAVHeader(t *testing.T) {
	h := WAVHeader(1600, SampleRate)
	if len(h) != WAVHeaderSize {
		t.Fatalf("header length = %d, want %d", len(h), WAVHeaderSize)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff", string(h[0:4]), "RIFF"},
		{"file length", binary.LittleEndian.Uint32(h[4:8]), uint32(1636)},
		{"wave", string(h[8:12]), "WAVE"},
		{"fmt", string(h[12:16]), "fmt "},
		{"fmt size", binary.LittleEndian.Uint32(h[16:20]), uint32(16)},
		{"pcm", binary.LittleEndian.Uint16(h[20:22]), uint16(1)},
		{"channels", binary.LittleEndian.Uint16(h[22:24]), uint16(1)},
		{"sample rate", binary.LittleEndian.Uint32(h[24:28]), uint32(8000)},
		{"byte rate", binary.LittleEndian.Uint32(h[28:32]), uint32(16000)},
		{"block align", binary.LittleEndian.Uint16(h[32:34]), uint16(2)},
		{"bits", binary.LittleEndian.Uint16(h[34:36]), uint16(16)},
		{"data", string(h[36:40]), "data"},
		{"data length", binary.LittleEndian.Uint32(h[40:44]), uint32(1600)},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestMulawToWAV(t *testing.T) {
	mulaw := bytes.Repeat([]byte{0xFF}, 160)
	wav := MulawToWAV(mulaw, SampleRate)
	if len(wav) != WAVHeaderSize+320 {
		t.Fatalf("wav length = %d, want %d", len(wav), WAVHeaderSize+320)
	}
	if binary.LittleEndian.Uint32(wav[40:44]) != 320 {
		t.Errorf("data length mismatch")
	}
	if !bytes.Equal(wav[WAVHeaderSize:], make([]byte, 320)) {
		t.Error("silence should decode to zero samples")
	}
}
