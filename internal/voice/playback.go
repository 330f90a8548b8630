package voice

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sink renders one decoded chunk at a time on the output device.
//
// Play must not invoke onDone synchronously; it fires once the chunk has
// finished rendering (or was stopped). The returned stop function halts the
// chunk early and may be called at most once.
type Sink interface {
	Play(pcm []float32, onDone func()) (stop func(), err error)
	// Suspended reports whether the output device is blocked waiting on
	// activation (e.g. a user gesture) and cannot render yet.
	Suspended() bool
	// Resume attempts to activate a suspended output device.
	Resume() error
	Close() error
}

// PlaybackState is the queue's rendering state.
type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackPlaying
)

func (s PlaybackState) String() string {
	if s == PlaybackPlaying {
		return "playing"
	}
	return "idle"
}

// PlaybackQueue serializes decoded audio chunks to the sink in strict arrival
// order. A flush stops the in-flight chunk and discards the backlog as one
// transition; a chunk-end callback that lost the race against a flush is
// recognized by its stale generation and ignored, so the queue can never
// double-advance.
type PlaybackQueue struct {
	sink Sink

	mu    sync.Mutex
	queue [][]float32
	state PlaybackState
	gen   uint64
	stop  func()
}

func NewPlaybackQueue(sink Sink) *PlaybackQueue {
	return &PlaybackQueue{sink: sink}
}

// Enqueue appends a chunk and starts playback immediately when idle.
func (q *PlaybackQueue) Enqueue(chunk []float32) {
	if len(chunk) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, chunk)
	if q.state == PlaybackIdle {
		q.startNextLocked()
	}
}

// Flush stops whatever is rendering, discards all queued chunks and returns
// the queue to idle. Chunks arriving afterwards play normally.
func (q *PlaybackQueue) Flush() {
	q.mu.Lock()
	q.gen++ // invalidates any pending chunk-end callback
	stop := q.stop
	q.stop = nil
	q.queue = nil
	q.state = PlaybackIdle
	q.mu.Unlock()
	// The sink may deliver onDone from inside stop; run it unlocked.
	if stop != nil {
		stop()
	}
}

// Len reports the number of queued chunks not yet handed to the sink.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// State reports whether a chunk is currently rendering.
func (q *PlaybackQueue) State() PlaybackState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Blocked reports whether playback is waiting on output-device activation.
func (q *PlaybackQueue) Blocked() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state == PlaybackIdle && len(q.queue) > 0 && q.sink.Suspended()
}

// ResumeOutput activates a suspended output device and restarts playback of
// the buffered backlog. Call it on any user interaction; it is a no-op when
// nothing is blocked.
func (q *PlaybackQueue) ResumeOutput() {
	q.mu.Lock()
	blocked := q.state == PlaybackIdle && len(q.queue) > 0
	q.mu.Unlock()
	if !blocked {
		return
	}
	if err := q.sink.Resume(); err != nil {
		log.Warn().Err(err).Msg("playback: output resume failed")
		return
	}
	q.mu.Lock()
	if q.state == PlaybackIdle && len(q.queue) > 0 {
		q.startNextLocked()
	}
	q.mu.Unlock()
}

// startNextLocked hands the head chunk to the sink. Caller holds q.mu.
func (q *PlaybackQueue) startNextLocked() {
	for len(q.queue) > 0 {
		if q.sink.Suspended() {
			// Keep the backlog; ResumeOutput restarts it.
			q.state = PlaybackIdle
			return
		}
		chunk := q.queue[0]
		q.queue = q.queue[1:]
		q.gen++
		gen := q.gen
		stop, err := q.sink.Play(chunk, func() { q.chunkDone(gen) })
		if err != nil {
			// Advance past the failed chunk rather than halting playback.
			log.Warn().Err(err).Msg("playback: chunk render failed")
			continue
		}
		q.stop = stop
		q.state = PlaybackPlaying
		return
	}
	q.state = PlaybackIdle
}

// chunkDone is the sink's end-of-chunk callback.
func (q *PlaybackQueue) chunkDone(gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.gen {
		// A flush (or error advance) already superseded this chunk.
		return
	}
	q.stop = nil
	q.startNextLocked()
}
