package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, error)
	ListSchedules(ctx context.Context, viewer application.Viewer) ([]application.Schedule, error)
	DeleteSchedule(ctx context.Context, viewer application.Viewer, scheduleID string) error
}

type viewBuilder interface {
	BuildView(ctx context.Context, scheduleID string, viewer application.Viewer) (application.ScheduleView, error)
}

type ScheduleHandler struct {
	service   scheduleService
	views     viewBuilder
	responder responder
	logger    *zap.Logger
}

func NewScheduleHandler(service scheduleService, views viewBuilder, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, views: views, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, fields...)
}

// Create accepts scheduleName, memo and candidates (one per line) and
// redirects to the new schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	fields, err := readFields(w, r)
	if err != nil {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgBadRequestBody, err)
		return
	}

	viewer, _ := ViewerFromContext(r.Context())
	schedule, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Viewer:         viewer,
		Name:           fields.get("scheduleName"),
		Memo:           fields.get("memo"),
		CandidatesText: fields.get("candidates"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	location := "/schedules/" + url.PathEscape(schedule.ID)
	h.log(r.Context(), "Create", zap.String("schedule_id", schedule.ID)).Debug("redirecting to schedule")
	w.Header().Set("Location", location)
	h.responder.writeJSON(r.Context(), w, http.StatusFound, scheduleCreatedResponse{ScheduleID: schedule.ID, Location: location})
}

func (h *ScheduleHandler) View(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.views == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgInvalidScheduleID, nil)
		return
	}

	viewer, _ := ViewerFromContext(r.Context())
	view, err := h.views.BuildView(r.Context(), scheduleID, viewer)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleViewDTO(view))
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	viewer, _ := ViewerFromContext(r.Context())
	schedules, err := h.service.ListSchedules(r.Context(), viewer)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSchedulesResponse{Schedules: toScheduleDTOs(schedules)})
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, msgInvalidScheduleID, nil)
		return
	}

	viewer, _ := ViewerFromContext(r.Context())
	if err := h.service.DeleteSchedule(r.Context(), viewer, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type scheduleCreatedResponse struct {
	ScheduleID string `json:"schedule_id"`
	Location   string `json:"location"`
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}

type scheduleDTO struct {
	ID          string `json:"schedule_id"`
	Name        string `json:"schedule_name"`
	Memo        string `json:"memo"`
	CreatedBy   int64  `json:"created_by"`
	CreatorName string `json:"creator_name,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type candidateDTO struct {
	ID   int64  `json:"candidate_id"`
	Name string `json:"candidate_name"`
}

// participantDTO carries one matrix row; Availabilities follows the order of
// the view's candidates.
type participantDTO struct {
	UserID         int64  `json:"user_id"`
	Username       string `json:"username"`
	IsSelf         bool   `json:"is_self"`
	Availabilities []int  `json:"availabilities"`
}

type scheduleViewDTO struct {
	Schedule     scheduleDTO      `json:"schedule"`
	Candidates   []candidateDTO   `json:"candidates"`
	Participants []participantDTO `json:"participants"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	return scheduleDTO{
		ID:          schedule.ID,
		Name:        schedule.Name,
		Memo:        schedule.Memo,
		CreatedBy:   schedule.CreatedBy,
		CreatorName: schedule.CreatorName,
		UpdatedAt:   schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toScheduleDTOs(schedules []application.Schedule) []scheduleDTO {
	dtos := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		dtos = append(dtos, toScheduleDTO(schedule))
	}
	return dtos
}

func toScheduleViewDTO(view application.ScheduleView) scheduleViewDTO {
	candidates := make([]candidateDTO, 0, len(view.Candidates))
	for _, c := range view.Candidates {
		candidates = append(candidates, candidateDTO{ID: c.ID, Name: c.Name})
	}

	participants := make([]participantDTO, 0, len(view.Participants))
	for i, p := range view.Participants {
		row := view.Matrix.Row(i)
		values := make([]int, len(row))
		for j, v := range row {
			values[j] = int(v)
		}
		participants = append(participants, participantDTO{
			UserID:         p.UserID,
			Username:       p.Username,
			IsSelf:         p.IsSelf,
			Availabilities: values,
		})
	}

	return scheduleViewDTO{
		Schedule:     toScheduleDTO(view.Schedule),
		Candidates:   candidates,
		Participants: participants,
	}
}
