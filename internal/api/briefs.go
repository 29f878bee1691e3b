package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/brief"
	"github.com/MikeSquared-Agency/intake/internal/lead"
)

type submitBriefRequest struct {
	BriefData      *lead.Record `json:"brief_data"`
	ConversationID string       `json:"conversation_id"`
	Timestamp      string       `json:"timestamp"`
	URL            string       `json:"url,omitempty"`
}

type submitBriefResponse struct {
	Status         string `json:"status"`
	BriefID        string `json:"brief_id"`
	ConversationID string `json:"conversation_id"`
	DeliveredAt    string `json:"delivered_at"`
}

func (s *Server) handleSubmitBrief(w http.ResponseWriter, r *http.Request) {
	var body submitBriefRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if body.BriefData == nil {
		respondError(w, http.StatusBadRequest, "bad_request", "brief_data is required")
		return
	}

	sub := brief.Submission{
		ConversationID: strings.TrimSpace(body.ConversationID),
		Lead:           *body.BriefData,
		SourceURL:      strings.TrimSpace(body.URL),
	}
	if body.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, body.Timestamp)
		if err != nil {
			respondError(w, http.StatusBadRequest, "bad_request", "timestamp must be ISO-8601")
			return
		}
		sub.Timestamp = ts
	}

	receipt, err := s.briefs.Submit(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, brief.ErrEmptyBrief):
			respondError(w, http.StatusBadRequest, "empty_brief", err.Error())
		case errors.Is(err, brief.ErrWebhookNotConfigured):
			respondError(w, http.StatusServiceUnavailable, "webhook_not_configured", err.Error())
		case errors.Is(err, brief.ErrDelivery):
			respondError(w, http.StatusBadGateway, "delivery_failed", err.Error())
		default:
			s.logger.Error("brief submission failed", "conversation_id", sub.ConversationID, "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "brief submission failed")
		}
		return
	}

	status := "submitted"
	if receipt.Duplicate {
		status = "duplicate"
	}
	respondJSON(w, http.StatusOK, submitBriefResponse{
		Status:         status,
		BriefID:        receipt.BriefID,
		ConversationID: sub.ConversationID,
		DeliveredAt:    receipt.DeliveredAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) listBriefs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	briefs, err := s.briefs.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list briefs failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list briefs")
		return
	}
	if briefs == nil {
		respondJSON(w, http.StatusOK, map[string]any{"briefs": []any{}, "count": 0})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"briefs": briefs, "count": len(briefs)})
}
