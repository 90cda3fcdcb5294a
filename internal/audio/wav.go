package audio

import "encoding/binary"

const WAVHeaderSize = 44

// WAVHeader builds the minimal mono 16-bit PCM RIFF header for dataLen bytes of samples.
func WAVHeader(dataLen, sampleRate int) []byte {
	h := make([]byte, WAVHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(dataLen+36))
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1)
	binary.LittleEndian.PutUint16(h[22:24], 1)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(h[32:34], 2)
	binary.LittleEndian.PutUint16(h[34:36], 16)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))
	return h
}

func EncodeWAV(pcm []byte, sampleRate int) []byte {
	out := make([]byte, 0, WAVHeaderSize+len(pcm))
	out = append(out, WAVHeader(len(pcm), sampleRate)...)
	return append(out, pcm...)
}

func MulawToWAV(mulaw []byte, sampleRate int) []byte {
	return EncodeWAV(MulawToPCM(mulaw), sampleRate)
}
