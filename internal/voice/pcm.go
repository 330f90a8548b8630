package voice

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

const (
	// SampleRate is the fixed mono sample rate of the agent's audio encoding,
	// used for both capture and playback so no resampling is needed.
	SampleRate = 16000

	// CaptureBlockSamples is the number of samples per outbound frame. Tunable;
	// 4096 samples is 256ms at 16kHz.
	CaptureBlockSamples = 4096
)

// EncodePCM16 converts float samples in [-1, 1] to little-endian signed 16-bit
// PCM bytes. Samples are clamped first. Scaling is asymmetric: negatives scale
// by 0x8000, non-negatives by 0x7FFF. The agent expects exactly this encoding.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		var s int16
		if v < 0 {
			s = int16(v * 0x8000)
		} else {
			s = int16(v * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}

// DecodePCM16 converts little-endian signed 16-bit PCM bytes to float samples
// in [-1, 1) by dividing by 32768. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// EncodeAudioBase64 produces the wire payload for one captured block.
func EncodeAudioBase64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// DecodeAudioBase64 decodes one inbound audio payload into playable samples.
func DecodeAudioBase64(payload string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return DecodePCM16(raw), nil
}
