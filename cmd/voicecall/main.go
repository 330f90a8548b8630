package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rfievet/betterMind/internal/audio"
	"github.com/rfievet/betterMind/internal/config"
	"github.com/rfievet/betterMind/internal/signedurl"
	"github.com/rfievet/betterMind/internal/voice"
	"github.com/rfievet/betterMind/pkg/logger"
)

// voicecall runs one voice conversation from the terminal: it mints a signed
// agent URL, opens the call with the local microphone and speaker, prints the
// transcript live and again in full when the call ends.
func main() {
	logger.Init()

	target := flag.String("url", "", "pre-authorized wss:// conversation URL (skips signed url minting)")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	callURL := *target
	if callURL == "" {
		mintCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		signed, err := signedurl.NewClient(cfg.ElevenLabsKey, cfg.ElevenLabsAgentID).Fetch(mintCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("voicecall: could not mint signed url")
		}
		callURL = signed
	}

	mic, err := audio.NewMic()
	if err != nil {
		log.Fatal().Err(err).Msg("voicecall: audio capture unavailable")
	}
	speaker, err := audio.NewSpeaker()
	if err != nil {
		log.Fatal().Err(err).Msg("voicecall: audio output unavailable")
	}

	sess := voice.NewSession(voice.Config{
		Language: cfg.CallLanguage,
		VoiceID:  cfg.ElevenLabsVoiceID,
		OnTranscript: func(e voice.TranscriptEntry) {
			fmt.Printf("[%s] %s\n", e.Role, e.Content)
		},
	}, mic, speaker)

	if err := sess.Start(ctx, callURL); err != nil {
		if errors.Is(err, voice.ErrPermissionDenied) {
			fmt.Fprintln(os.Stderr, "microphone access denied; check your input device permissions")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("voicecall: start failed")
	}

	fmt.Println("call running, press ctrl-c to hang up")
	select {
	case <-ctx.Done():
	case <-sess.Done():
	}

	entries := sess.End()
	fmt.Printf("\ncall ended after %s (%d entries, %d dropped frames)\n",
		sess.Duration(), len(entries), sess.DroppedFrames())
	for _, e := range entries {
		fmt.Printf("[%s] %s\n", e.Role, e.Content)
	}
}
