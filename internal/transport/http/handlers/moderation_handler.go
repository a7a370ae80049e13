package handlers

import (
	"net/http"

	modsvc "github.com/probab1ly/project-tgbotcontest/internal/services/moderation"
	httperrors "github.com/probab1ly/project-tgbotcontest/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

type moderationQueueSizePayload struct {
	QueueSize int `json:"queue_size"`
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) QueueSize(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	size, err := h.service.QueueSize(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load moderation queue size")
		return
	}

	httperrors.Write(w, http.StatusOK, moderationQueueSizePayload{QueueSize: size})
}
