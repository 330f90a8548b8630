package audio

import (
	"encoding/binary"
	"math"
)

// bytesToFloat32 reinterprets a device buffer of little-endian float32
// samples. frameCount caps the sample count in case the driver hands over a
// padded buffer.
func bytesToFloat32(input []byte, frameCount int) []float32 {
	n := len(input) / 4
	if frameCount > 0 && frameCount < n {
		n = frameCount
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(input[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// float32ToS16LE converts normalized samples to the signed 16-bit
// little-endian stream the output device consumes.
func float32ToS16LE(pcm []float32) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
