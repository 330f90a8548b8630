package voice

import (
	"encoding/json"
	"fmt"
)

// Event is one inbound message from the voice agent, discriminated by the
// top-level "type" field. Unrecognized types decode to UnknownEvent rather
// than an error so the session never dies on protocol additions.
type Event interface {
	eventType() string
}

// PingEvent asks the client to reply with a pong after PingMS milliseconds.
type PingEvent struct {
	EventID int
	PingMS  int
}

func (PingEvent) eventType() string { return "ping" }

// UserTranscriptEvent carries the agent's transcription of a user utterance.
type UserTranscriptEvent struct {
	Text string
}

func (UserTranscriptEvent) eventType() string { return "user_transcript" }

// AgentResponseEvent carries the agent's text reply.
type AgentResponseEvent struct {
	Text string
}

func (AgentResponseEvent) eventType() string { return "agent_response" }

// AudioEvent carries one base64-encoded PCM16 chunk of agent speech.
type AudioEvent struct {
	AudioBase64 string
}

func (AudioEvent) eventType() string { return "audio" }

// InterruptionEvent signals that queued and in-flight playback must stop now.
type InterruptionEvent struct{}

func (InterruptionEvent) eventType() string { return "interruption" }

// InitiationMetadataEvent acknowledges the initiation message. No payload we use.
type InitiationMetadataEvent struct{}

func (InitiationMetadataEvent) eventType() string { return "conversation_initiation_metadata" }

// UnknownEvent preserves anything we do not recognize.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

func (e UnknownEvent) eventType() string { return e.Type }

// DecodeEvent parses one inbound JSON message into its typed event.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch envelope.Type {
	case "ping":
		var msg struct {
			PingEvent struct {
				EventID int `json:"event_id"`
				PingMS  int `json:"ping_ms"`
			} `json:"ping_event"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode ping: %w", err)
		}
		return PingEvent{EventID: msg.PingEvent.EventID, PingMS: msg.PingEvent.PingMS}, nil
	case "user_transcript":
		var msg struct {
			UserTranscriptionEvent struct {
				UserTranscript string `json:"user_transcript"`
			} `json:"user_transcription_event"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode user_transcript: %w", err)
		}
		return UserTranscriptEvent{Text: msg.UserTranscriptionEvent.UserTranscript}, nil
	case "agent_response":
		var msg struct {
			AgentResponseEvent struct {
				AgentResponse string `json:"agent_response"`
			} `json:"agent_response_event"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode agent_response: %w", err)
		}
		return AgentResponseEvent{Text: msg.AgentResponseEvent.AgentResponse}, nil
	case "audio":
		var msg struct {
			AudioEvent struct {
				AudioBase64 string `json:"audio_base_64"`
			} `json:"audio_event"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		return AudioEvent{AudioBase64: msg.AudioEvent.AudioBase64}, nil
	case "interruption":
		return InterruptionEvent{}, nil
	case "conversation_initiation_metadata":
		return InitiationMetadataEvent{}, nil
	default:
		return UnknownEvent{Type: envelope.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}
