package audio

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"

	"github.com/rfievet/betterMind/internal/voice"
)

// Mic captures microphone audio as mono float32 at the session sample rate
// and hands it to the session in fixed-size blocks. It implements
// voice.Microphone.
type Mic struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	pending []float32
	onBlock func([]float32)
	closed  bool
}

// NewMic allocates the platform audio context. The capture device itself is
// opened by Start so a session that never starts touches no hardware.
func NewMic() (*Mic, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug().Str("msg", msg).Msg("audio: context message")
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Mic{ctx: ctx}, nil
}

// Start opens and starts the capture device. Device errors almost always mean
// the OS refused microphone access, so they surface as permission denial.
func (m *Mic) Start(onBlock func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("%w: capture device closed", voice.ErrPermissionDenied)
	}
	if m.device != nil {
		return nil
	}
	m.onBlock = onBlock
	m.pending = make([]float32, 0, voice.CaptureBlockSamples*2)

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = voice.SampleRate
	if runtime.GOOS == "linux" {
		cfg.Alsa.NoMMap = 1
	}

	device, err := malgo.InitDevice(m.ctx.Context, cfg, malgo.DeviceCallbacks{Data: m.onCapture})
	if err != nil {
		return fmt.Errorf("%w: %v", voice.ErrPermissionDenied, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: %v", voice.ErrPermissionDenied, err)
	}
	m.device = device
	log.Info().Msg("audio: capture device started")
	return nil
}

// onCapture runs on the device thread. It accumulates samples and emits
// complete blocks; the tail shorter than a block stays pending.
func (m *Mic) onCapture(_, input []byte, frameCount uint32) {
	samples := bytesToFloat32(input, int(frameCount))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = append(m.pending, samples...)
	var blocks [][]float32
	for len(m.pending) >= voice.CaptureBlockSamples {
		block := make([]float32, voice.CaptureBlockSamples)
		copy(block, m.pending[:voice.CaptureBlockSamples])
		m.pending = m.pending[voice.CaptureBlockSamples:]
		blocks = append(blocks, block)
	}
	onBlock := m.onBlock
	m.mu.Unlock()

	for _, block := range blocks {
		onBlock(block)
	}
}

// Close stops the device and releases the audio context. Safe to call more
// than once; capture callbacks racing with Close are discarded.
func (m *Mic) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	device := m.device
	m.device = nil
	m.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
	}
	return nil
}
