// Package server exposes the telephony webhook surface. Two endpoints
// drive the whole call: /voice greets the caller and opens the first
// speech window, /process_speech loops every gathered utterance
// through the conversation driver until the order is confirmed.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voicechef/agent/driver"
)

// SettingKeyGreeting is the admin setting holding the opening line.
// The key is required; a deployment without it cannot answer calls.
const SettingKeyGreeting = "GREETING"

// Speech window lengths. The first window is shorter because the
// caller just heard the greeting; mid-call windows allow for thinking.
const (
	greetTimeoutSeconds  = 15
	gatherTimeoutSeconds = 20
)

const (
	repromptFallback = "Sorry, I didn't catch that. Please try again."
	goodbyeFallback  = "I can't hear you, goodbye."
	failureLine      = "Sorry, something went wrong on our end. Please call again in a moment."
)

// TurnHandler is the driver surface the webhook needs.
type TurnHandler interface {
	HandleTurn(ctx context.Context, in driver.TurnInput) (driver.TurnOutput, error)
}

// SettingReader resolves admin settings like the greeting line.
type SettingReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type Config struct {
	Addr string `envconfig:"ADDR" default:":8000"`

	// Development routes the call by the caller's number instead of
	// the dialed number, so a single test line can reach any seeded
	// restaurant.
	Development bool `envconfig:"DEVELOPMENT" default:"false"`

	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
}

type Server struct {
	turns       TurnHandler
	settings    SettingReader
	development bool
}

func New(turns TurnHandler, settings SettingReader, cfg Config) *Server {
	return &Server{
		turns:       turns,
		settings:    settings,
		development: cfg.Development,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/voice", s.handleVoice)
	r.Post("/voice/", s.handleVoice)
	r.Post("/process_speech", s.handleProcessSpeech)
	r.Post("/process_speech/", s.handleProcessSpeech)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("webhook server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
