// Package driver creates live browser sessions against the configured
// execution backend: a local driver process, a Selenium Grid hub, or a
// hosted cloud provider.
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"

	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/logging"
)

// Conn is a live browser connection. The session registry holds Conns
// rather than raw WebDrivers so tests can exercise lifecycle logic
// against fakes.
type Conn interface {
	// Driver returns the underlying WebDriver handle.
	Driver() selenium.WebDriver

	// Close ends the browser session and stops any driver process
	// started for it.
	Close() error
}

// Factory resolves capabilities and creates sessions for a backend.
type Factory struct {
	logger logrus.FieldLogger
}

// NewFactory returns a Factory. A nil logger discards output.
func NewFactory(logger logrus.FieldLogger) *Factory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Factory{logger: logger}
}

// NewSession creates a live session per the resolved configuration.
// For remote backends the hub URL is checked before any network
// attempt; an empty URL fails with a ConfigurationError.
func (f *Factory) NewSession(cfg *config.Config) (Conn, error) {
	caps, err := sessionCapabilities(cfg)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"backend":  cfg.Backend,
		"browser":  cfg.Browser,
		"headless": cfg.Headless,
	}).Info("creating browser session")

	var c *conn
	switch cfg.Backend {
	case config.Local:
		c, err = f.localSession(cfg, caps)
	default:
		c, err = f.remoteSession(cfg, caps)
	}
	if err != nil {
		return nil, err
	}

	if err := f.applySessionSettings(c.wd, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// localSession starts a driver process when a binary path is
// configured, otherwise assumes a driver or Selenium server is already
// listening on the default local hub address.
func (f *Factory) localSession(cfg *config.Config, caps selenium.Capabilities) (*conn, error) {
	var (
		service *selenium.Service
		prefix  string
		err     error
	)

	if cfg.DriverPath != "" {
		switch cfg.Browser {
		case config.Chrome:
			// chromedriver is started with /wd/hub as its base path.
			service, err = selenium.NewChromeDriverService(cfg.DriverPath, cfg.DriverPort)
			prefix = fmt.Sprintf("http://localhost:%d/wd/hub", cfg.DriverPort)
		case config.Firefox:
			service, err = selenium.NewGeckoDriverService(cfg.DriverPath, cfg.DriverPort)
			prefix = fmt.Sprintf("http://localhost:%d", cfg.DriverPort)
		default:
			return nil, &SessionCreationError{
				Backend: cfg.Backend,
				Err:     fmt.Errorf("driver.path is only supported for chrome and firefox, not %s", cfg.Browser),
			}
		}
		if err != nil {
			return nil, &SessionCreationError{Backend: cfg.Backend, Err: fmt.Errorf("start driver process: %w", err)}
		}
	}

	wd, err := selenium.NewRemote(caps, prefix)
	if err != nil {
		if service != nil {
			_ = service.Stop()
		}
		return nil, &SessionCreationError{Backend: cfg.Backend, Err: err}
	}

	return &conn{wd: wd, service: service, logger: f.logger}, nil
}

func (f *Factory) remoteSession(cfg *config.Config, caps selenium.Capabilities) (*conn, error) {
	if cfg.HubURL == "" {
		return nil, &config.ConfigurationError{Reason: "remote hub URL is not configured"}
	}

	f.logger.WithField("hub", cfg.HubURL).Debug("dialing remote hub")
	wd, err := selenium.NewRemote(caps, cfg.HubURL)
	if err != nil {
		return nil, &SessionCreationError{Backend: cfg.Backend, Hub: cfg.HubURL, Err: err}
	}
	return &conn{wd: wd, logger: f.logger}, nil
}

// applySessionSettings maximizes the window best-effort and applies
// the configured timeouts. The page-load floor is already baked into
// cfg.PageLoadTimeoutSeconds at resolution time.
func (f *Factory) applySessionSettings(wd selenium.WebDriver, cfg *config.Config) error {
	if err := wd.MaximizeWindow(""); err != nil {
		// Headless and non-GUI backends may not support this.
		f.logger.WithError(err).Warn("could not maximize window")
	}

	if err := wd.SetImplicitWaitTimeout(time.Duration(cfg.ImplicitWaitSeconds) * time.Second); err != nil {
		return &SessionCreationError{Backend: cfg.Backend, Err: fmt.Errorf("set implicit wait: %w", err)}
	}
	if err := wd.SetPageLoadTimeout(time.Duration(cfg.PageLoadTimeoutSeconds) * time.Second); err != nil {
		return &SessionCreationError{Backend: cfg.Backend, Err: fmt.Errorf("set page load timeout: %w", err)}
	}
	return nil
}

type conn struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  logrus.FieldLogger
}

func (c *conn) Driver() selenium.WebDriver { return c.wd }

func (c *conn) Close() error {
	var errs []error
	if c.wd != nil {
		if err := c.wd.Quit(); err != nil {
			errs = append(errs, fmt.Errorf("quit driver: %w", err))
		}
	}
	if c.service != nil {
		if err := c.service.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver process: %w", err))
		}
	}
	return errors.Join(errs...)
}
