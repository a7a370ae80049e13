package handlers

import (
	"net/http"
	"time"

	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
	httperrors "github.com/probab1ly/project-tgbotcontest/internal/transport/http/errors"
)

type WinnerHandler struct {
	service *winnersvc.Service
}

type winnerResponsePayload struct {
	ProfileID int64     `json:"profile_id"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	Fallback  bool      `json:"fallback"`
	DecidedAt time.Time `json:"decided_at"`
}

func NewWinnerHandler(service *winnersvc.Service) *WinnerHandler {
	return &WinnerHandler{service: service}
}

func (h *WinnerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "WINNER_SERVICE_UNAVAILABLE", "winner service is unavailable")
		return
	}

	result, err := h.service.Winner(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to compute winner")
		return
	}
	if !result.Found {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "NO_WINNER",
			Message: "no rated approved profiles yet",
		})
		return
	}

	httperrors.Write(w, http.StatusOK, winnerResponsePayload{
		ProfileID: result.ProfileID,
		Average:   result.Average,
		Count:     result.Count,
		Fallback:  result.Fallback,
		DecidedAt: result.Decided.UTC(),
	})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
		Code:    code,
		Message: message,
	})
}
