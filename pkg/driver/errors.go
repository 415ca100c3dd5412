package driver

import (
	"fmt"

	"github.com/entrhq/gauntlet/pkg/config"
)

// UnsupportedBrowserError reports a browser kind outside the supported
// set.
type UnsupportedBrowserError struct {
	Browser config.Browser
}

func (e *UnsupportedBrowserError) Error() string {
	return fmt.Sprintf("unsupported browser: %q", e.Browser)
}

// SessionCreationError reports that the backend was unreachable or
// rejected the requested capabilities.
type SessionCreationError struct {
	Backend config.Backend
	Hub     string
	Err     error
}

func (e *SessionCreationError) Error() string {
	if e.Hub != "" {
		return fmt.Sprintf("create %s session against %s: %v", e.Backend, e.Hub, e.Err)
	}
	return fmt.Sprintf("create %s session: %v", e.Backend, e.Err)
}

func (e *SessionCreationError) Unwrap() error { return e.Err }
