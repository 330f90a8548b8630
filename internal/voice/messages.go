package voice

// Outbound messages to the voice agent.

type initiationMessage struct {
	Type                       string         `json:"type"`
	ConversationConfigOverride configOverride `json:"conversation_config_override"`
}

type configOverride struct {
	Agent agentOverride `json:"agent"`
	TTS   *ttsOverride  `json:"tts,omitempty"`
}

type agentOverride struct {
	Language string `json:"language,omitempty"`
}

type ttsOverride struct {
	VoiceID string `json:"voice_id"`
}

func newInitiationMessage(language, voiceID string) initiationMessage {
	msg := initiationMessage{
		Type: "conversation_initiation_client_data",
		ConversationConfigOverride: configOverride{
			Agent: agentOverride{Language: language},
		},
	}
	if voiceID != "" {
		msg.ConversationConfigOverride.TTS = &ttsOverride{VoiceID: voiceID}
	}
	return msg
}

type pongMessage struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}

// audioChunkMessage is the per-block microphone frame. It carries no "type"
// field; the agent recognizes it by the user_audio_chunk key alone.
type audioChunkMessage struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}
