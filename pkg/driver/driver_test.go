package driver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/entrhq/gauntlet/pkg/config"
)

func TestNewSession_RemoteWithoutHubURL(t *testing.T) {
	// An empty hub URL must fail before any network attempt: the
	// whole call has to return near-instantly with a configuration
	// error, not a dial failure.
	for _, backend := range []config.Backend{config.Grid, config.Cloud} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := &config.Config{Browser: config.Chrome, Backend: backend}

			start := time.Now()
			_, err := NewFactory(nil).NewSession(cfg)
			elapsed := time.Since(start)

			var cerr *config.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, err.Error(), "remote hub URL is not configured")
			assert.Less(t, elapsed, 100*time.Millisecond)
		})
	}
}

func TestNewSession_UnsupportedBrowser(t *testing.T) {
	cfg := &config.Config{Browser: config.Browser("netscape"), Backend: config.Grid, HubURL: "http://hub:4444/wd/hub"}

	_, err := NewFactory(nil).NewSession(cfg)
	var uerr *UnsupportedBrowserError
	assert.ErrorAs(t, err, &uerr)
}

func TestNewSession_LocalDriverPathForSafari(t *testing.T) {
	cfg := &config.Config{Browser: config.Safari, Backend: config.Local, DriverPath: "/usr/local/bin/safaridriver"}

	_, err := NewFactory(nil).NewSession(cfg)
	var serr *SessionCreationError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "driver.path is only supported")
}

// quitRecorder stubs Quit so conn teardown can be observed without a
// live browser.
type quitRecorder struct {
	selenium.WebDriver
	quitErr error
	quits   int
}

func (q *quitRecorder) Quit() error {
	q.quits++
	return q.quitErr
}

func TestConnClose_QuitsDriver(t *testing.T) {
	wd := &quitRecorder{}
	c := &conn{wd: wd}

	require.NoError(t, c.Close())
	assert.Equal(t, 1, wd.quits)
}

func TestConnClose_ReportsQuitFailure(t *testing.T) {
	cause := errors.New("session already terminated")
	c := &conn{wd: &quitRecorder{quitErr: cause}}

	err := c.Close()
	assert.ErrorIs(t, err, cause)
}

func TestSessionCreationError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &SessionCreationError{Backend: config.Grid, Hub: "http://hub:4444/wd/hub", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "http://hub:4444/wd/hub")
}
