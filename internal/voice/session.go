package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrPermissionDenied means microphone access was refused. It is the only
// error surfaced from call establishment; everything else is contained.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrSessionEnded means Start was called on a session that already closed.
// Sessions are single-use; make a new one for the next call.
var ErrSessionEnded = errors.New("call session already ended")

// State is the connection state of a call session.
type State int32

const (
	StateNew State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "new"
	}
}

// Config carries per-call settings.
type Config struct {
	// Language and VoiceID are sent in the initiation message.
	Language string
	VoiceID  string

	// DialTimeout bounds the channel handshake. Defaults to 10s.
	DialTimeout time.Duration

	// OnTranscript, when set, is invoked for every entry as it arrives so a
	// UI can render the conversation live. The full ordered sequence is still
	// returned by End.
	OnTranscript func(TranscriptEntry)
}

// Session owns every resource of one voice call: the websocket channel, the
// microphone, the playback queue, the duration ticker and the transcript.
// Teardown runs exactly once no matter which exit path triggers it.
type Session struct {
	cfg   Config
	mic   Microphone
	sink  Sink
	queue *PlaybackQueue
	enc   *CaptureEncoder
	disp  *Dispatcher

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	transcript []TranscriptEntry

	writeMu sync.Mutex

	elapsed  atomic.Int64 // whole seconds since the channel opened
	done     chan struct{}
	tearOnce sync.Once
}

// NewSession wires a session against a microphone and an output sink. The
// session takes ownership of both and closes them at teardown.
func NewSession(cfg Config, mic Microphone, sink Sink) *Session {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	s := &Session{
		cfg:   cfg,
		mic:   mic,
		sink:  sink,
		queue: NewPlaybackQueue(sink),
		done:  make(chan struct{}),
	}
	s.enc = NewCaptureEncoder(s)
	s.disp = &Dispatcher{
		Queue:    s.queue,
		OnUser:   func(text string) { s.appendTranscript(RoleUser, text) },
		OnAgent:  func(text string) { s.appendTranscript(RoleAssistant, text) },
		SendPong: s.sendPong,
		IsOpen:   s.IsOpen,
	}
	return s
}

// Start acquires the microphone and opens the realtime channel to target (a
// pre-authorized wss:// URL). Calling it again while the session is
// connecting or open is a no-op, so rapid re-invocation cannot produce a
// second channel.
//
// Microphone denial is the only failure returned to the caller (wrapped
// ErrPermissionDenied). A channel that fails to open or drops later is
// logged, tears the session down and is observable via Done.
func (s *Session) Start(ctx context.Context, target string) error {
	s.mu.Lock()
	switch s.state {
	case StateConnecting, StateOpen:
		s.mu.Unlock()
		return nil
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.mic.Start(s.enc.HandleBlock); err != nil {
		s.teardown()
		return fmt.Errorf("start call: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		log.Error().Err(err).Msg("session: voice agent connection failed")
		s.teardown()
		return nil
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Torn down while dialing.
		s.mu.Unlock()
		_ = conn.Close()
		return ErrSessionEnded
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	if err := s.writeJSON(newInitiationMessage(s.cfg.Language, s.cfg.VoiceID)); err != nil {
		log.Error().Err(err).Msg("session: initiation send failed")
		s.teardown()
		return nil
	}

	go s.tickDuration()
	go s.readLoop(conn)
	log.Info().Msg("session: call open")
	return nil
}

// End terminates the call and hands back the accumulated transcript in
// arrival order. Safe to call more than once and after a remote close.
func (s *Session) End() []TranscriptEntry {
	s.teardown()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// State reports the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether the channel is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateOpen
}

// Done is closed once teardown has run.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Duration reports elapsed call time at one-second granularity.
func (s *Session) Duration() time.Duration {
	return time.Duration(s.elapsed.Load()) * time.Second
}

// DroppedFrames reports capture blocks discarded while the channel was not open.
func (s *Session) DroppedFrames() uint64 {
	return s.enc.DroppedFrames()
}

// Playback exposes the queue so the host can surface Blocked and forward user
// interactions to ResumeOutput.
func (s *Session) Playback() *PlaybackQueue {
	return s.queue
}

// SendAudioFrame implements FrameSender for the capture encoder.
func (s *Session) SendAudioFrame(payload string) error {
	return s.writeJSON(audioChunkMessage{UserAudioChunk: payload})
}

func (s *Session) sendPong(eventID int) error {
	return s.writeJSON(pongMessage{Type: "pong", EventID: eventID})
}

// writeJSON is the single serialization point for the outbound channel.
func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("channel not open")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (s *Session) appendTranscript(role Role, text string) {
	entry := TranscriptEntry{Role: role, Content: text}
	s.mu.Lock()
	s.transcript = append(s.transcript, entry)
	s.mu.Unlock()
	if s.cfg.OnTranscript != nil {
		s.cfg.OnTranscript(entry)
	}
}

// readLoop handles inbound messages in arrival order until the channel
// closes, then tears the session down.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer s.teardown()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && s.IsOpen() {
				log.Warn().Err(err).Msg("session: channel closed unexpectedly")
			}
			return
		}
		s.disp.Dispatch(data)
	}
}

func (s *Session) tickDuration() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.elapsed.Add(1)
		}
	}
}

// teardown releases every resource: capture device, playback queue and sink,
// the channel, and the duration ticker. It is the single exit path for
// explicit end, remote close and dial failure alike, and runs at most once.
func (s *Session) teardown() {
	s.tearOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()

		close(s.done)
		// Mic blocks may still be in flight from the device callback; they
		// hit the closed-channel drop path in the encoder, never this state.
		if err := s.mic.Close(); err != nil {
			log.Debug().Err(err).Msg("session: microphone close failed")
		}
		s.queue.Flush()
		if err := s.sink.Close(); err != nil {
			log.Debug().Err(err).Msg("session: output close failed")
		}
		if conn != nil {
			deadline := time.Now().Add(2 * time.Second)
			s.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			s.writeMu.Unlock()
			_ = conn.Close()
		}
		log.Info().Dur("duration", s.Duration()).Msg("session: call closed")
	})
}
