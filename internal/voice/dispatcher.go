package voice

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher routes inbound agent events to the transcript, the playback
// queue and the pong reply path. Malformed messages are logged and discarded;
// unrecognized event types are ignored.
type Dispatcher struct {
	Queue *PlaybackQueue

	// OnUser and OnAgent append transcript entries in arrival order.
	OnUser  func(text string)
	OnAgent func(text string)

	// SendPong writes a pong for the given event id; IsOpen gates it at the
	// moment the ping delay elapses, not at receipt.
	SendPong func(eventID int) error
	IsOpen   func() bool
}

// Dispatch handles one raw inbound message.
func (d *Dispatcher) Dispatch(raw []byte) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		log.Debug().Err(err).Msg("dispatcher: discarding malformed message")
		return
	}

	switch e := ev.(type) {
	case PingEvent:
		d.schedulePong(e)
	case UserTranscriptEvent:
		if d.OnUser != nil {
			d.OnUser(e.Text)
		}
	case AgentResponseEvent:
		if d.OnAgent != nil {
			d.OnAgent(e.Text)
		}
	case AudioEvent:
		samples, err := DecodeAudioBase64(e.AudioBase64)
		if err != nil {
			log.Debug().Err(err).Msg("dispatcher: discarding undecodable audio chunk")
			return
		}
		d.Queue.Enqueue(samples)
	case InterruptionEvent:
		d.Queue.Flush()
	case InitiationMetadataEvent:
		// Acknowledged; nothing to do.
	case UnknownEvent:
		log.Debug().Str("type", e.Type).Msg("dispatcher: ignoring unknown event")
	}
}

// schedulePong replies after the agent's requested delay, but only if the
// channel is still open by then. No timer bookkeeping is needed at teardown:
// a late timer fires against a closed channel and does nothing.
func (d *Dispatcher) schedulePong(ping PingEvent) {
	delay := time.Duration(ping.PingMS) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		if d.IsOpen == nil || !d.IsOpen() {
			return
		}
		if err := d.SendPong(ping.EventID); err != nil {
			log.Debug().Err(err).Int("event_id", ping.EventID).Msg("dispatcher: pong send failed")
		}
	})
}
