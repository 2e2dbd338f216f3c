package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/efdarkside/whatsapi/internal/delivery"
	"github.com/efdarkside/whatsapi/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type statusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// verifyWebhook answers the platform's subscription handshake: echo the
// challenge iff the verify token matches the configured secret.
func (s *Server) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.cfg.VerifyToken {
		s.log.Info("webhook verification succeeded")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	s.log.Warn("webhook verification failed", zap.String("mode", mode))
	http.Error(w, "verification failed", http.StatusForbidden)
}

// relayWebhook runs the pipeline: normalize, suppress duplicates, dispatch.
// Anything that does not yield a valid event answers 200 so the sender does
// not enter a retry storm over payloads we will never act on.
func (s *Server) relayWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	log := s.log.With(zap.String("request_id", reqID))

	limited := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()
	body, err := io.ReadAll(limited)
	if err != nil {
		log.Warn("relay: body read failed", zap.Error(err))
		writeStatus(w, http.StatusOK, statusResponse{Status: "ignored"})
		return
	}

	ev, ok := s.normalizer.Normalize(body, time.Now())
	if !ok {
		log.Debug("relay: nothing to act on")
		writeStatus(w, http.StatusOK, statusResponse{Status: "ignored"})
		return
	}

	fresh, err := s.guard.CheckAndRecord(r.Context(), ev.MessageID)
	if err != nil {
		// Suppression is best-effort; a guard outage must not drop messages.
		log.Error("relay: dedup guard error, treating as fresh", zap.Error(err))
		fresh = true
	}
	if !fresh {
		log.Info("relay: duplicate suppressed", zap.String("message_id", ev.MessageID))
		writeStatus(w, http.StatusOK, statusResponse{Status: "duplicate"})
		return
	}

	// The sender may drop the connection before we finish; the outbound
	// calls still run to completion and the response is best-effort.
	res := s.dispatcher.Dispatch(context.WithoutCancel(r.Context()), ev)
	switch {
	case res.OK():
		writeStatus(w, http.StatusOK, statusResponse{Status: string(res.Status)})
	case errors.Is(res.Err, delivery.ErrCredentialExpired):
		writeStatus(w, http.StatusUnauthorized, statusResponse{
			Status: string(model.StatusDeliveryFailure),
			Detail: "delivery credential expired",
		})
	default:
		writeStatus(w, http.StatusInternalServerError, statusResponse{
			Status: string(res.Status),
			Detail: res.Detail,
		})
	}
}

func writeStatus(w http.ResponseWriter, code int, body statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
