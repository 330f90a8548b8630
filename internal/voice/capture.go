package voice

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Microphone delivers fixed-size blocks of float samples in [-1, 1] from the
// capture device. Start begins delivery; blocks keep arriving until Close.
type Microphone interface {
	Start(onBlock func(block []float32)) error
	Close() error
}

// FrameSender is the outbound side of the realtime channel as the capture
// encoder sees it.
type FrameSender interface {
	SendAudioFrame(payload string) error
	IsOpen() bool
}

// CaptureEncoder turns microphone blocks into outbound wire frames. Blocks
// that arrive while the channel is not open are dropped without buffering;
// capture itself keeps running regardless of channel state.
type CaptureEncoder struct {
	sender  FrameSender
	dropped atomic.Uint64
}

func NewCaptureEncoder(sender FrameSender) *CaptureEncoder {
	return &CaptureEncoder{sender: sender}
}

// HandleBlock encodes and ships one capture block. Safe to call from the
// audio device callback.
func (c *CaptureEncoder) HandleBlock(block []float32) {
	if !c.sender.IsOpen() {
		c.dropped.Add(1)
		return
	}
	if err := c.sender.SendAudioFrame(EncodeAudioBase64(block)); err != nil {
		// The read loop notices the broken channel and tears down; here the
		// frame is simply lost.
		log.Debug().Err(err).Msg("capture: frame send failed")
	}
}

// DroppedFrames reports how many blocks were discarded because the channel
// was not open when they were ready.
func (c *CaptureEncoder) DroppedFrames() uint64 {
	return c.dropped.Load()
}
