// Package api exposes the task queue, the background task manager, lifecycle
// transitions and rental tracking over a JSON HTTP API built on chi.
package api
