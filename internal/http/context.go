package http

import (
	"context"

	"github.com/example/attendance-scheduler/internal/application"
)

type contextKey string

const (
	viewerContextKey     contextKey = "viewer"
	scheduleIDContextKey contextKey = "schedule_id"
)

// ContextWithViewer returns a derived context containing the resolved viewer.
func ContextWithViewer(ctx context.Context, viewer application.Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey, viewer)
}

// ViewerFromContext extracts the resolved viewer from context if available.
func ViewerFromContext(ctx context.Context) (application.Viewer, bool) {
	viewer, ok := ctx.Value(viewerContextKey).(application.Viewer)
	return viewer, ok
}

// ContextWithScheduleID injects the schedule identifier resolved from the request path.
func ContextWithScheduleID(ctx context.Context, scheduleID string) context.Context {
	return context.WithValue(ctx, scheduleIDContextKey, scheduleID)
}

// ScheduleIDFromContext extracts a schedule identifier previously associated with the context.
func ScheduleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scheduleIDContextKey).(string)
	return id, ok
}
