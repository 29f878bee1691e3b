package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/conversation"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/phase"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

type historyMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type chatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []historyMessage `json:"conversation_history"`
	ConversationID      string           `json:"conversation_id,omitempty"`
	ConversationPhase   string           `json:"conversation_phase,omitempty"`
	// ExtractedData is the record returned on the previous turn.
	ExtractedData *lead.Record `json:"extracted_data,omitempty"`
}

type chatResponse struct {
	Response          string       `json:"response"`
	ConversationID    string       `json:"conversation_id"`
	Timestamp         string       `json:"timestamp"`
	ConversationPhase string       `json:"conversation_phase"`
	ExtractedData     *lead.Record `json:"extracted_data,omitempty"`
	ShouldSubmitBrief bool         `json:"should_submit_brief"`
}

var errBadRequest = errors.New("bad request")

// toConversation validates the wire request. Unparseable history timestamps
// are dropped rather than rejected.
func (c chatRequest) toConversation() (conversation.Request, error) {
	if strings.TrimSpace(c.Message) == "" {
		return conversation.Request{}, fmt.Errorf("%w: message is required", errBadRequest)
	}
	p, err := phase.Parse(c.ConversationPhase)
	if err != nil {
		return conversation.Request{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	history := make(transcript.Transcript, 0, len(c.ConversationHistory))
	for _, m := range c.ConversationHistory {
		turn := transcript.Turn{Role: transcript.ParseRole(m.Role), Text: m.Content}
		if m.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
				turn.Timestamp = ts
			}
		}
		history = append(history, turn)
	}

	return conversation.Request{
		Message:        c.Message,
		History:        history,
		ConversationID: strings.TrimSpace(c.ConversationID),
		Phase:          p,
		Previous:       c.ExtractedData,
	}, nil
}

func newChatResponse(res *conversation.Result) chatResponse {
	return chatResponse{
		Response:          res.Reply,
		ConversationID:    res.ConversationID,
		Timestamp:         res.Timestamp.UTC().Format(time.RFC3339),
		ConversationPhase: res.Phase.String(),
		ExtractedData:     res.Record,
		ShouldSubmitBrief: res.ShouldSubmit,
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	resp, status, err := s.runChat(r, body)
	if err != nil {
		respondError(w, status, chatErrorCode(status), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// runChat is shared by the HTTP and websocket handlers.
func (s *Server) runChat(r *http.Request, body chatRequest) (chatResponse, int, error) {
	req, err := body.toConversation()
	if err != nil {
		return chatResponse{}, http.StatusBadRequest, err
	}
	res, err := s.chat.Handle(r.Context(), req)
	if err != nil {
		return chatResponse{}, chatErrorStatus(err), err
	}
	return newChatResponse(res), http.StatusOK, nil
}

func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrUpstreamCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func chatErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusBadGateway:
		return "upstream_completion_failed"
	default:
		return "internal_error"
	}
}
