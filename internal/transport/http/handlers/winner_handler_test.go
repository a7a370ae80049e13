package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
)

func TestWinnerHandlerReturnsWinner(t *testing.T) {
	store := &stubSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 5, Count: 7, Average: 4.6},
	}}
	handler := NewWinnerHandler(winnersvc.NewService(store, nil, 0, nil))

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/v1/winner", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var payload winnerResponsePayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ProfileID != 5 || payload.Count != 7 || payload.Fallback {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestWinnerHandlerNoWinner(t *testing.T) {
	handler := NewWinnerHandler(winnersvc.NewService(&stubSummaryStore{}, nil, 0, nil))

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/v1/winner", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

type stubSummaryStore struct {
	summaries []model.RatingSummary
}

func (s *stubSummaryStore) ApprovedSummaries(context.Context) ([]model.RatingSummary, error) {
	return s.summaries, nil
}
