package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"PriceTicker/internal/model"
)

// Status exposes the orchestrator state to the HTTP API.
type Status interface {
	Query() model.PriceQuery
	LastKnown() (model.PriceSample, bool)
}

type stateResponse struct {
	Base             string   `json:"base"`
	Quote            string   `json:"quote"`
	Price            string   `json:"price,omitempty"`
	PercentChange24h *float64 `json:"percentChange24h,omitempty"`
	Change           string   `json:"change,omitempty"`
	Clients          int      `json:"clients"`
}

// NewRouter wires the remote-control endpoints.
func NewRouter(hub *Hub, status Status) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/state", func(w http.ResponseWriter, _ *http.Request) {
		q := status.Query()
		resp := stateResponse{Base: q.Base, Quote: q.Quote, Clients: hub.ClientCount()}
		if s, ok := status.LastKnown(); ok {
			change := s.PercentChange24h
			resp.Price = s.Price
			resp.PercentChange24h = &change
			resp.Change = s.ChangeDisplay()
		}
		writeJSON(w, http.StatusOK, resp)
	})
	r.Handle("/ws", hub)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("remote control listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
