// Package artifacts persists failure diagnostics. The Recorder plugs
// into the session notifier chain and writes each failure snapshot to
// the report directory as screenshot, page source and console log
// files.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/logging"
	"github.com/entrhq/gauntlet/pkg/session"
)

// Recorder writes failure snapshots to disk. It implements
// session.Notifier and is safe for concurrent use; every artifact file
// name carries a worker tag, a timestamp and a sequence number.
type Recorder struct {
	dir        string
	screenshot bool
	logger     logrus.FieldLogger
	seq        atomic.Uint64
}

// NewRecorder returns a Recorder writing under cfg.ReportDir.
// Screenshot capture honors cfg.ScreenshotOnFail; page source and
// console logs are always written. A nil logger discards output.
func NewRecorder(cfg *config.Config, logger logrus.FieldLogger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		dir:        cfg.ReportDir,
		screenshot: cfg.ScreenshotOnFail,
		logger:     logger,
	}
}

// OnSessionCreated records the session start in the log.
func (r *Recorder) OnSessionCreated(worker string, cfg *config.Config) {
	r.logger.WithFields(logrus.Fields{
		"worker":  worker,
		"browser": cfg.Browser,
		"backend": cfg.Backend,
	}).Info("session created")
}

// OnSessionClosed records the session end in the log.
func (r *Recorder) OnSessionClosed(worker string) {
	r.logger.WithField("worker", worker).Info("session closed")
}

// OnActionFailed persists the snapshot. Write failures are logged and
// swallowed; diagnostics must never mask the interaction error that
// triggered them.
func (r *Recorder) OnActionFailed(worker string, actionErr error, snap *session.Snapshot) {
	log := r.logger.WithField("worker", worker).WithError(actionErr)

	if snap == nil {
		log.Warn("interaction failed, no snapshot captured")
		return
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		log.WithError(err).Warn("cannot create report directory")
		return
	}

	base := r.baseName(worker, snap.CapturedAt)

	if r.screenshot && len(snap.Screenshot) > 0 {
		r.write(base+".png", snap.Screenshot, log)
	}
	if snap.PageSource != "" {
		r.write(base+".html", []byte(snap.PageSource), log)
	}
	if len(snap.ConsoleLog) > 0 {
		r.write(base+".log", []byte(strings.Join(snap.ConsoleLog, "\n")+"\n"), log)
	}

	log.WithField("artifacts", base).Error("interaction failed")
}

func (r *Recorder) baseName(worker string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%03d",
		sanitize(worker),
		at.Format("20060102-150405"),
		r.seq.Add(1),
	)
	return filepath.Join(r.dir, name)
}

func (r *Recorder) write(path string, data []byte, log logrus.FieldLogger) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).WithField("path", path).Warn("cannot write artifact")
	}
}

// sanitize keeps file names portable across filesystems.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
