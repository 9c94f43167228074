// Package mailer is a stand-in mail delivery service: it accepts messages
// over HTTP, logs them and keeps the most recent ones for inspection.
package mailer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"
)

const DefaultOutboxSize = 100

type Message struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type Handler struct {
	mu     sync.Mutex
	outbox []Message
	size   int
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(outboxSize int, logger *slog.Logger) *Handler {
	if outboxSize < 1 {
		outboxSize = DefaultOutboxSize
	}
	return &Handler{
		size:   outboxSize,
		logger: logger,
		now:    time.Now,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.To); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid recipient")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		h.writeError(w, http.StatusBadRequest, "subject is required")
		return
	}

	h.record(Message{To: req.To, Subject: req.Subject, Body: req.Body, SentAt: h.now().UTC()})
	h.logger.Info("email sent", "to", req.To, "subject", req.Subject, "bytes", len(req.Body))

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

// HandleOutbox lists the retained messages, newest first.
func (h *Handler) HandleOutbox(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	out := make([]Message, 0, len(h.outbox))
	for i := len(h.outbox) - 1; i >= 0; i-- {
		out = append(out, h.outbox[i])
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) record(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outbox = append(h.outbox, m)
	if len(h.outbox) > h.size {
		h.outbox = h.outbox[len(h.outbox)-h.size:]
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
