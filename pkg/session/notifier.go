package session

import "github.com/entrhq/gauntlet/pkg/config"

// Notifier receives lifecycle events for reporting and artifact
// capture. The registry invokes it synchronously at the corresponding
// points; delivery is never buffered, batched, or retried.
type Notifier interface {
	OnSessionCreated(worker string, cfg *config.Config)

	// OnActionFailed reports a terminal interaction failure together
	// with a diagnostic snapshot. snap may hold partial captures.
	OnActionFailed(worker string, actionErr error, snap *Snapshot)

	OnSessionClosed(worker string)
}

// NopNotifier ignores every event.
type NopNotifier struct{}

func (NopNotifier) OnSessionCreated(string, *config.Config)        {}
func (NopNotifier) OnActionFailed(string, error, *Snapshot)        {}
func (NopNotifier) OnSessionClosed(string)                         {}
