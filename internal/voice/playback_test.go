package voice

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeSink records chunks and lets tests complete them manually.
type fakeSink struct {
	mu        sync.Mutex
	played    [][]float32
	dones     []func()
	stops     int32
	suspended bool
	playErr   error // consumed by the next Play call
}

func (f *fakeSink) Play(pcm []float32, onDone func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		err := f.playErr
		f.playErr = nil
		return nil, err
	}
	f.played = append(f.played, pcm)
	f.dones = append(f.dones, onDone)
	return func() { atomic.AddInt32(&f.stops, 1) }, nil
}

func (f *fakeSink) Suspended() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suspended
}

func (f *fakeSink) Resume() error {
	f.mu.Lock()
	f.suspended = false
	f.mu.Unlock()
	return nil
}

func (f *fakeSink) Close() error { return nil }

// finish fires the onDone callback of the i-th started chunk.
func (f *fakeSink) finish(i int) {
	f.mu.Lock()
	done := f.dones[i]
	f.mu.Unlock()
	done()
}

func (f *fakeSink) playedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func chunk(v float32) []float32 { return []float32{v} }

func TestPlaybackQueue_StrictFIFO(t *testing.T) {
	sink := &fakeSink{}
	q := NewPlaybackQueue(sink)

	q.Enqueue(chunk(1))
	q.Enqueue(chunk(2))
	q.Enqueue(chunk(3))

	if got := sink.playedCount(); got != 1 {
		t.Fatalf("expected only head chunk started, got %d", got)
	}
	sink.finish(0)
	sink.finish(1)
	sink.finish(2)

	if got := sink.playedCount(); got != 3 {
		t.Fatalf("expected 3 chunks played, got %d", got)
	}
	for i, want := range []float32{1, 2, 3} {
		if sink.played[i][0] != want {
			t.Fatalf("chunk %d: got %v want %v", i, sink.played[i][0], want)
		}
	}
	if q.State() != PlaybackIdle || q.Len() != 0 {
		t.Fatalf("expected idle empty queue, got state=%v len=%d", q.State(), q.Len())
	}
}

func TestPlaybackQueue_BackToBackArrival(t *testing.T) {
	sink := &fakeSink{}
	q := NewPlaybackQueue(sink)

	q.Enqueue(chunk(1))
	q.Enqueue(chunk(2))

	// One playing, one queued.
	if q.State() != PlaybackPlaying {
		t.Fatalf("expected playing, got %v", q.State())
	}
	if q.Len() != 1 {
		t.Fatalf("expected queue length 1 at second arrival, got %d", q.Len())
	}

	sink.finish(0)
	sink.finish(1)
	if q.State() != PlaybackIdle || q.Len() != 0 {
		t.Fatalf("expected idle empty after both finished, got state=%v len=%d", q.State(), q.Len())
	}
}

func TestPlaybackQueue_FlushStopsAndClears(t *testing.T) {
	sink := &fakeSink{}
	q := NewPlaybackQueue(sink)

	q.Enqueue(chunk(1))
	q.Enqueue(chunk(2))
	q.Enqueue(chunk(3))
	q.Flush()

	if got := atomic.LoadInt32(&sink.stops); got != 1 {
		t.Fatalf("expected in-flight chunk stopped once, got %d", got)
	}
	if q.State() != PlaybackIdle || q.Len() != 0 {
		t.Fatalf("expected idle empty after flush, got state=%v len=%d", q.State(), q.Len())
	}

	// A late chunk-end from the stopped chunk must not advance anything.
	sink.finish(0)
	if got := sink.playedCount(); got != 1 {
		t.Fatalf("stale chunk-end started playback: played=%d", got)
	}

	// Chunks arriving after the interruption play normally.
	q.Enqueue(chunk(4))
	if got := sink.playedCount(); got != 2 {
		t.Fatalf("expected post-flush chunk to play, played=%d", got)
	}
	if sink.played[1][0] != 4 {
		t.Fatalf("expected chunk 4, got %v", sink.played[1][0])
	}
}

func TestPlaybackQueue_RenderErrorAdvances(t *testing.T) {
	sink := &fakeSink{}
	q := NewPlaybackQueue(sink)

	q.Enqueue(chunk(1))
	q.Enqueue(chunk(2))
	q.Enqueue(chunk(3))

	sink.mu.Lock()
	sink.playErr = errors.New("device gone")
	sink.mu.Unlock()

	sink.finish(0) // chunk 2 fails to start; queue must move on to chunk 3

	if got := sink.playedCount(); got != 2 {
		t.Fatalf("expected 2 successful renders, got %d", got)
	}
	if sink.played[1][0] != 3 {
		t.Fatalf("expected chunk 3 after failed chunk 2, got %v", sink.played[1][0])
	}
}

func TestPlaybackQueue_SuspendedOutputKeepsBacklog(t *testing.T) {
	sink := &fakeSink{suspended: true}
	q := NewPlaybackQueue(sink)

	q.Enqueue(chunk(1))
	q.Enqueue(chunk(2))

	if got := sink.playedCount(); got != 0 {
		t.Fatalf("expected nothing rendered while suspended, got %d", got)
	}
	if !q.Blocked() {
		t.Fatalf("expected Blocked to report true")
	}
	if q.Len() != 2 {
		t.Fatalf("expected backlog preserved, len=%d", q.Len())
	}

	q.ResumeOutput()
	if got := sink.playedCount(); got != 1 {
		t.Fatalf("expected head chunk rendering after resume, got %d", got)
	}
	sink.finish(0)
	sink.finish(1)
	if got := sink.playedCount(); got != 2 {
		t.Fatalf("expected both chunks rendered, got %d", got)
	}
	if sink.played[0][0] != 1 || sink.played[1][0] != 2 {
		t.Fatalf("order lost across suspension: %v, %v", sink.played[0][0], sink.played[1][0])
	}
}

func TestPlaybackQueue_EmptyChunkIgnored(t *testing.T) {
	sink := &fakeSink{}
	q := NewPlaybackQueue(sink)
	q.Enqueue(nil)
	if sink.playedCount() != 0 || q.State() != PlaybackIdle {
		t.Fatalf("empty chunk must be a no-op")
	}
}
