package voice

import (
	"sync"
	"testing"
)

type fakeFrameSender struct {
	mu     sync.Mutex
	open   bool
	frames []string
	err    error
}

func (f *fakeFrameSender) SendAudioFrame(payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeFrameSender) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func TestCaptureEncoder_SendsWhileOpen(t *testing.T) {
	sender := &fakeFrameSender{open: true}
	enc := NewCaptureEncoder(sender)

	block := []float32{0.1, -0.1, 0.2}
	enc.HandleBlock(block)

	if len(sender.frames) != 1 {
		t.Fatalf("expected 1 frame sent, got %d", len(sender.frames))
	}
	if sender.frames[0] != EncodeAudioBase64(block) {
		t.Fatalf("frame payload mismatch")
	}
	if enc.DroppedFrames() != 0 {
		t.Fatalf("expected no drops, got %d", enc.DroppedFrames())
	}
}

func TestCaptureEncoder_DropsWhileClosed(t *testing.T) {
	sender := &fakeFrameSender{open: false}
	enc := NewCaptureEncoder(sender)

	enc.HandleBlock([]float32{0.1})
	enc.HandleBlock([]float32{0.2})

	if len(sender.frames) != 0 {
		t.Fatalf("expected no frames sent while closed, got %d", len(sender.frames))
	}
	if enc.DroppedFrames() != 2 {
		t.Fatalf("expected 2 dropped frames, got %d", enc.DroppedFrames())
	}

	// Channel opens later; capture was never stopped, so frames flow again.
	sender.mu.Lock()
	sender.open = true
	sender.mu.Unlock()
	enc.HandleBlock([]float32{0.3})
	if len(sender.frames) != 1 {
		t.Fatalf("expected frame after channel opened, got %d", len(sender.frames))
	}
}
