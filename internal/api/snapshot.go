package api

import "time"

// Provider is the read-only surface the engine exposes to the
// dashboard: the latest per-bar progress snapshot, the final result
// once the run completes, and an optional event stream for the
// websocket hub.
type Provider interface {
	Progress() ProgressSnapshot
	Result() (ResultSnapshot, bool)
	DashboardEvents() <-chan DashboardEvent
}

// BuildSnapshot wraps the provider's current progress as a
// DashboardEvent, the shape every websocket client receives on
// connect. HTTP polls of /api/snapshot receive the bare
// ProgressSnapshot without this wrapper.
func BuildSnapshot(provider Provider) DashboardEvent {
	return DashboardEvent{
		Type:      "progress",
		Timestamp: time.Now(),
		Data:      provider.Progress(),
	}
}
