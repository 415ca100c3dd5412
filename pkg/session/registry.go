package session

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/driver"
	"github.com/entrhq/gauntlet/pkg/logging"
)

// Factory creates live browser connections. *driver.Factory satisfies
// it; tests substitute fakes.
type Factory interface {
	NewSession(cfg *config.Config) (driver.Conn, error)
}

// entry is the per-worker slot. The sync.Once makes initialization
// for one worker run at most once while keeping creation for
// different workers fully concurrent.
type entry struct {
	once sync.Once
	sess *Session
	err  error
}

// Registry maps logical worker identities to live sessions and
// enforces one session per worker.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	factory  Factory
	notifier Notifier
	logger   logrus.FieldLogger
}

// NewRegistry returns an empty registry. A nil notifier drops events;
// a nil logger discards output.
func NewRegistry(factory Factory, notifier Notifier, logger logrus.FieldLogger) *Registry {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		entries:  make(map[string]*entry),
		factory:  factory,
		notifier: notifier,
		logger:   logger,
	}
}

// Acquire returns the worker's live session, creating it on first
// call. A second acquire without an intervening release returns the
// identical session and ignores cfg — release before reconfiguring.
//
// Only the map lookup is serialized; two workers acquiring
// concurrently create their sessions in parallel.
func (r *Registry) Acquire(worker string, cfg *config.Config) (*Session, error) {
	r.mu.Lock()
	e, ok := r.entries[worker]
	if !ok {
		e = &entry{}
		r.entries[worker] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		conn, err := r.factory.NewSession(cfg)
		if err != nil {
			e.err = err
			return
		}
		e.sess = newSession(worker, cfg, conn)
		r.logger.WithFields(logrus.Fields{
			"worker":  worker,
			"session": e.sess.ID,
			"backend": cfg.Backend,
		}).Info("session created")
		r.notifier.OnSessionCreated(worker, cfg)
	})

	if e.err != nil {
		// Drop the failed slot so a later acquire can retry.
		r.mu.Lock()
		if r.entries[worker] == e {
			delete(r.entries, worker)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.sess, nil
}

// Current returns the worker's live session, if any.
func (r *Registry) Current(worker string) (*Session, bool) {
	r.mu.Lock()
	e, ok := r.entries[worker]
	r.mu.Unlock()
	if !ok || e.sess == nil {
		return nil, false
	}
	return e.sess, true
}

// Release tears down the worker's session and removes it from the
// registry. Teardown failures are logged, never propagated, so they
// cannot mask the worker's real outcome. Releasing a worker with no
// session is a no-op.
func (r *Registry) Release(worker string) {
	r.mu.Lock()
	e, ok := r.entries[worker]
	delete(r.entries, worker)
	r.mu.Unlock()

	if !ok {
		return
	}

	// Wait out an in-flight initialization before tearing down.
	e.once.Do(func() {})
	if e.sess == nil {
		return
	}

	if err := e.sess.close(); err != nil {
		r.logger.WithError(err).WithField("worker", worker).Warn("session teardown failed")
	} else {
		r.logger.WithFields(logrus.Fields{"worker": worker, "session": e.sess.ID}).Info("session closed")
	}
	r.notifier.OnSessionClosed(worker)
}

// With runs fn against the worker's session and guarantees release on
// every exit path, including panics.
func (r *Registry) With(worker string, cfg *config.Config, fn func(*Session) error) error {
	s, err := r.Acquire(worker, cfg)
	if err != nil {
		return err
	}
	defer r.Release(worker)
	return fn(s)
}

// CloseAll releases every live session. Called at suite teardown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	workers := make([]string, 0, len(r.entries))
	for w := range r.entries {
		workers = append(workers, w)
	}
	r.mu.Unlock()

	for _, w := range workers {
		r.Release(w)
	}
}
