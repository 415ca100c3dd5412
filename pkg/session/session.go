// Package session owns the browser session lifecycle: one live,
// exclusively-owned session per logical worker, created lazily on
// first acquire and torn down on release.
//
// The registry is the only shared mutable structure in the system.
// Its lock guards map access during the check-and-create step only;
// session creation runs outside it, and an already-created session is
// never touched by more than one worker.
package session

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	slog "github.com/tebeka/selenium/log"

	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/driver"
)

// ErrSessionClosed is returned for operations on a released session.
var ErrSessionClosed = errors.New("session already closed")

// Session is one live browser automation handle bound to a single
// worker. Timeouts are copied from the config at creation time, so
// later configuration changes never affect an open session.
type Session struct {
	ID        string
	Worker    string
	Backend   config.Backend
	CreatedAt time.Time

	ImplicitWait    time.Duration
	PageLoadTimeout time.Duration
	ExplicitWait    time.Duration

	conn   driver.Conn
	closed atomic.Bool
}

func newSession(worker string, cfg *config.Config, conn driver.Conn) *Session {
	return &Session{
		ID:              uuid.NewString(),
		Worker:          worker,
		Backend:         cfg.Backend,
		CreatedAt:       time.Now(),
		ImplicitWait:    time.Duration(cfg.ImplicitWaitSeconds) * time.Second,
		PageLoadTimeout: time.Duration(cfg.PageLoadTimeoutSeconds) * time.Second,
		ExplicitWait:    time.Duration(cfg.ExplicitWaitSeconds) * time.Second,
		conn:            conn,
	}
}

// Driver returns the live WebDriver handle, or ErrSessionClosed after
// release.
func (s *Session) Driver() (selenium.WebDriver, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return s.conn.Driver(), nil
}

// Closed reports whether the session has been released.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// close marks the session closed and tears down the connection.
// Subsequent calls are no-ops.
func (s *Session) close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

// Snapshot is an on-demand capture of session state for diagnostics.
// The core produces it; persisting it is the notifier's business.
type Snapshot struct {
	SessionID  string
	Worker     string
	CapturedAt time.Time

	// Screenshot is PNG bytes, nil when capture failed.
	Screenshot []byte

	// PageSource is the current page markup, empty when capture failed.
	PageSource string

	// ConsoleLog holds browser console lines, nil when the backend
	// does not expose them.
	ConsoleLog []string
}

// Snapshot captures what it can from the live session. Every capture
// is best-effort; a closed session yields an empty snapshot.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID:  s.ID,
		Worker:     s.Worker,
		CapturedAt: time.Now(),
	}

	wd, err := s.Driver()
	if err != nil {
		return snap
	}

	if img, err := wd.Screenshot(); err == nil {
		snap.Screenshot = img
	}
	if src, err := wd.PageSource(); err == nil {
		snap.PageSource = src
	}
	if messages, err := wd.Log(slog.Browser); err == nil {
		for _, m := range messages {
			snap.ConsoleLog = append(snap.ConsoleLog, fmt.Sprintf("[%s] %s", m.Level, m.Message))
		}
	}
	return snap
}
