// Package stub serves a small PayPal-shaped dispute API backed by memory. It exists for local
// development and for exercising the HTTP gateway end to end.
package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
)

const requestIDHeader = "PayPal-Request-Id"

var (
	errMissingRequestID = errors.New("PayPal-Request-Id header is required")
	errEmptyMessage     = errors.New("message must not be empty")
)

// Receipt acknowledges one accepted response.
type Receipt struct {
	ID         string    `json:"id"`
	DisputeID  string    `json:"dispute_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// Message is a response as received, kept for inspection.
type Message struct {
	Receipt
	RequestID string `json:"request_id"`
	Text      string `json:"message"`
}

type Config struct {
	Disputes []dispute.Dispute
	// Token, when set, is required as a bearer token on every API call.
	Token  string
	Logger zerolog.Logger
	Now    func() time.Time
}

// Server holds the fixture disputes and every message sent to them.
type Server struct {
	mu        sync.Mutex
	disputes  []dispute.Dispute
	messages  []Message
	byRequest map[string]Receipt
	token     string
	log       zerolog.Logger
	now       func() time.Time
}

func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		disputes:  append([]dispute.Dispute(nil), cfg.Disputes...),
		byRequest: map[string]Receipt{},
		token:     cfg.Token,
		log:       cfg.Logger,
		now:       now,
	}
}

// Router exposes the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1/customer/disputes", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.listDisputes)
		r.Get("/{id}", s.getDispute)
		r.Get("/{id}/messages", s.listMessages)
		r.Post("/{id}/send-message", s.sendMessage)
	})
	return r
}

// Messages returns a copy of every accepted message in arrival order.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Server) listDisputes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := append([]dispute.Dispute(nil), s.disputes...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getDispute(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", dispute.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.lookup(id); !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", dispute.ErrNotFound.Error())
		return
	}
	s.mu.Lock()
	items := []Message{}
	for _, m := range s.messages {
		if m.DisputeID == id {
			items = append(items, m)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", errMissingRequestID.Error())
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", errEmptyMessage.Error())
		return
	}
	if _, ok := s.lookup(id); !ok {
		writeError(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", dispute.ErrNotFound.Error())
		return
	}

	s.mu.Lock()
	if receipt, seen := s.byRequest[requestID]; seen {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, receipt)
		return
	}
	receipt := Receipt{ID: uuid.NewString(), DisputeID: id, ReceivedAt: s.now().UTC()}
	s.byRequest[requestID] = receipt
	s.messages = append(s.messages, Message{Receipt: receipt, RequestID: requestID, Text: req.Message})
	s.mu.Unlock()

	s.log.Info().Str("dispute_id", id).Str("receipt_id", receipt.ID).Int("chars", len(req.Message)).Msg("response received")
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) lookup(id string) (dispute.Dispute, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dispute.Find(s.disputes, id)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "AUTHENTICATION_FAILURE", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, errorResponse{Name: name, Message: message})
}
