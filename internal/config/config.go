package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress       string
	ElevenLabsKey     string
	ElevenLabsAgentID string
	ElevenLabsBaseURL string
	ElevenLabsVoiceID string
	CallLanguage      string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("config: no .env file, using process environment")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Warn().Msg("ELEVENLABS_API_KEY not set - signed url minting will not work")
	}

	agentID := os.Getenv("ELEVENLABS_AGENT_ID")
	if agentID == "" {
		log.Warn().Msg("ELEVENLABS_AGENT_ID not set - voice calls will not work")
	}

	baseURL := os.Getenv("ELEVENLABS_BASE_URL")

	voiceID := os.Getenv("ELEVENLABS_VOICE_ID")
	language := os.Getenv("VOICE_CALL_LANGUAGE")
	if language == "" {
		language = "en"
	}

	log.Info().Str("http_address", addr).Msg("config loaded")
	return Config{
		HTTPAddress:       addr,
		ElevenLabsKey:     elevenKey,
		ElevenLabsAgentID: agentID,
		ElevenLabsBaseURL: baseURL,
		ElevenLabsVoiceID: voiceID,
		CallLanguage:      language,
	}
}
