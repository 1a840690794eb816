package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
)

type availabilityService interface {
	UpsertAvailability(ctx context.Context, params application.UpsertAvailabilityParams) (application.UpsertAvailabilityResult, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *zap.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

// Upsert records the availability field for the user and candidate named in the path.
func (h *AvailabilityHandler) Upsert(w http.ResponseWriter, r *http.Request, userIDValue, candidateIDValue string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgInvalidScheduleID, nil)
		return
	}
	userID, err := strconv.ParseInt(userIDValue, 10, 64)
	if err != nil {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgInvalidUserID, err)
		return
	}
	candidateID, err := strconv.ParseInt(candidateIDValue, 10, 64)
	if err != nil {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgInvalidCandidate, err)
		return
	}

	fields, err := readFields(w, r)
	if err != nil {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgBadRequestBody, err)
		return
	}
	raw, present := fields.lookup("availability")

	result, err := h.service.UpsertAvailability(r.Context(), application.UpsertAvailabilityParams{
		ScheduleID:  scheduleID,
		UserID:      userID,
		CandidateID: candidateID,
		Input:       application.ParseAvailabilityInput(raw, present),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Status:       result.Status,
		Availability: int(result.Availability),
	})
}

type availabilityResponse struct {
	Status       string `json:"status"`
	Availability int    `json:"availability"`
}
