// Package http provides HTTP handlers and middleware for the attendance scheduler.
//
// Every route except /healthz expects an identity token (see RequireIdentity).
// The router exposes the following endpoints:
//   - POST /schedules: creates a schedule from the body fields scheduleName, memo
//     and candidates (one candidate per line), sent as a form or a JSON object.
//     Responds 302 with Location /schedules/{id}.
//   - GET /schedules: lists the schedules created by the viewer, most recently
//     updated first.
//   - GET /schedules/{id}: returns the attendance view. Participants start with the
//     viewer and each carries one availability per candidate in candidate order.
//   - DELETE /schedules/{id}: deletes the schedule with its candidates and answers.
//     Only the creator may delete. Returns 204 No Content.
//   - POST /schedules/{id}/users/{userId}/candidates/{candidateId}: records the
//     availability field (0, 1 or 2; missing or unreadable values count as 0) and
//     responds {"status":"OK","availability":n}.
//   - GET /healthz: pings the store.
//
// Error bodies follow errorResponse in responder.go; messages are Japanese unless
// Accept-Language prefers English.
package http
