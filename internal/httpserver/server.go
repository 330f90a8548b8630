package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/rfievet/betterMind/internal/config"
	"github.com/rfievet/betterMind/internal/signedurl"
)

// Server bundles the HTTP router and its dependencies. It fronts call setup:
// clients ask it for a signed conversation URL instead of holding the API key
// themselves.
type Server struct {
	Router *echo.Echo
	signer *signedurl.Client
}

// New constructs the HTTP server with routes.
func New(cfg config.Config) *Server {
	signer := signedurl.NewClient(cfg.ElevenLabsKey, cfg.ElevenLabsAgentID)
	signer.BaseURL = cfg.ElevenLabsBaseURL

	s := &Server{Router: newEcho(), signer: signer}

	s.Router.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.Router.GET("/api/voice/signed-url", s.handleSignedURL)

	return s
}

func (s *Server) handleSignedURL(c echo.Context) error {
	signed, err := s.signer.Fetch(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("httpserver: signed url mint failed")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "could not mint signed url",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"signed_url": signed})
}
