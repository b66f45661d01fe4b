// Package api exposes the relay over HTTP for hosts that post execution
// records instead of linking the library.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/dispatcher"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
)

// Poster runs the notification pipeline for one record.
type Poster interface {
	Notify(ctx context.Context, trigger domain.Trigger, rec *domain.ExecutionRecord) dispatcher.Result
}

// BreakerState reports the circuit-breaker state for a URL, for the
// verbose health view.
type BreakerState interface {
	State(url string) string
}

type Handler struct {
	poster Poster

	// breaker/webhookURL feed the verbose /health view; both optional.
	breaker    BreakerState
	webhookURL string
}

func NewHandler(poster Poster) *Handler {
	return &Handler{poster: poster}
}

// WithBreakerState enables breaker reporting on /health?verbose=true.
func (h *Handler) WithBreakerState(b BreakerState, webhookURL string) *Handler {
	h.breaker = b
	h.webhookURL = webhookURL
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case path == "/notify" && r.Method == http.MethodPost:
		h.notify(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose || h.breaker == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: map[string]string{"breaker": h.breaker.State(h.webhookURL)},
	}
	if resp.Components["breaker"] != "closed" {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	trigger := r.URL.Query().Get("trigger")
	if trigger == "" {
		// The trigger may also ride in the record body.
		var probe struct {
			Trigger string `json:"trigger"`
		}
		if err := json.Unmarshal(body, &probe); err == nil {
			trigger = probe.Trigger
		}
	}
	if trigger == "" {
		writeError(w, http.StatusBadRequest, "missing trigger")
		return
	}

	rec, err := domain.DecodeRecord(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid execution record: "+err.Error())
		return
	}

	res := h.poster.Notify(r.Context(), domain.Trigger(trigger), rec)

	resp := NotifyResponse{
		Delivered:  res.Delivered(),
		Outcome:    string(res.Outcome),
		StatusCode: res.StatusCode,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}

	status := http.StatusOK
	switch res.Outcome {
	case dispatcher.OutcomeDelivered:
		status = http.StatusOK
	case dispatcher.OutcomeConfigError:
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
