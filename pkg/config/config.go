// Package config resolves the execution configuration for a suite run.
//
// Configuration is read once from a key-value Source, validated, and
// frozen into a Config. Components receive the resolved Config and
// never reach back into the source, so a running session can not be
// affected by later changes to the underlying file or environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Browser identifies the browser a session drives.
type Browser string

const (
	Chrome  Browser = "chrome"
	Firefox Browser = "firefox"
	Edge    Browser = "edge"
	Safari  Browser = "safari"
)

// Backend identifies where sessions are created.
type Backend string

const (
	// Local runs against a driver process on this machine.
	Local Backend = "local"

	// Grid runs against a Selenium Grid hub.
	Grid Backend = "grid"

	// Cloud runs against a hosted provider hub (Sauce, BrowserStack, ...).
	Cloud Backend = "cloud"
)

// OverridePrefix marks configuration keys that are passed through as
// raw capabilities, e.g. cap.platformName=Windows 11.
const OverridePrefix = "cap."

// Recognized configuration keys. Any key carrying the OverridePrefix
// is also recognized and collected into CapabilityOverrides.
const (
	KeyBrowser          = "browser"
	KeyHeadless         = "headless"
	KeyExecutionType    = "execution.type"
	KeyGridURL          = "grid.url"
	KeyCloudURL         = "cloud.url"
	KeyCloudUser        = "cloud.user"
	KeyCloudKey         = "cloud.key"
	KeyImplicitWait     = "implicit.wait"
	KeyExplicitWait     = "explicit.wait"
	KeyRetryEnabled     = "retry.enabled"
	KeyRetryCount       = "retry.count"
	KeyBaseURL          = "base.url"
	KeyReportDir        = "report.dir"
	KeyScreenshotOnFail = "screenshot.on.fail"
	KeyThreadCount      = "thread.count"
	KeyDriverPath       = "driver.path"
	KeyDriverPort       = "driver.port"
	KeyLogLevel         = "log.level"
)

// ConfigurationError reports a missing or invalid configuration value.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Config is the resolved, immutable execution configuration.
// Treat a resolved Config as read-only; sessions copy the timeout
// values they need at creation time.
type Config struct {
	Browser  Browser
	Headless bool
	Backend  Backend

	// HubURL is the remote session endpoint. Populated from grid.url
	// or cloud.url depending on Backend; empty for Local.
	HubURL string

	// CloudUser and CloudKey are provider credentials, merged into
	// capabilities for Cloud sessions.
	CloudUser string
	CloudKey  string

	// CapabilityOverrides holds raw cap.* passthrough entries. Values
	// are opaque; they are merged into capabilities last, so they win
	// over any generically derived capability with the same key.
	CapabilityOverrides map[string]string

	ImplicitWaitSeconds    int
	PageLoadTimeoutSeconds int
	ExplicitWaitSeconds    int

	RetryEnabled bool
	RetryCount   int

	BaseURL          string
	ReportDir        string
	ScreenshotOnFail bool
	Workers          int

	// DriverPath points at a locally provisioned driver binary
	// (chromedriver, geckodriver). Empty means a driver or Selenium
	// server is already listening on the default local hub address.
	DriverPath string
	DriverPort int

	LogLevel string
}

// minPageLoadSeconds floors the page-load timeout so short explicit
// waits do not abort slow page loads.
const minPageLoadSeconds = 30

// Resolve reads every recognized key from src, applies defaults,
// validates, and returns the frozen Config.
func Resolve(src Source) (*Config, error) {
	cfg := &Config{
		Browser:             Browser(strings.ToLower(getString(src, KeyBrowser, "chrome"))),
		Backend:             Backend(strings.ToLower(getString(src, KeyExecutionType, "local"))),
		CloudUser:           getString(src, KeyCloudUser, ""),
		CloudKey:            getString(src, KeyCloudKey, ""),
		CapabilityOverrides: map[string]string{},
		BaseURL:             getString(src, KeyBaseURL, "https://the-internet.herokuapp.com/"),
		ReportDir:           getString(src, KeyReportDir, "reports"),
		DriverPath:          getString(src, KeyDriverPath, ""),
		LogLevel:            getString(src, KeyLogLevel, "info"),
	}

	var err error
	if cfg.Headless, err = getBool(src, KeyHeadless, false); err != nil {
		return nil, err
	}
	if cfg.ScreenshotOnFail, err = getBool(src, KeyScreenshotOnFail, true); err != nil {
		return nil, err
	}
	if cfg.RetryEnabled, err = getBool(src, KeyRetryEnabled, false); err != nil {
		return nil, err
	}
	if cfg.RetryCount, err = getInt(src, KeyRetryCount, 0); err != nil {
		return nil, err
	}
	if cfg.ImplicitWaitSeconds, err = getInt(src, KeyImplicitWait, 0); err != nil {
		return nil, err
	}
	if cfg.ExplicitWaitSeconds, err = getInt(src, KeyExplicitWait, 20); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt(src, KeyThreadCount, 4); err != nil {
		return nil, err
	}
	if cfg.DriverPort, err = getInt(src, KeyDriverPort, 9515); err != nil {
		return nil, err
	}

	switch cfg.Browser {
	case Chrome, Firefox, Edge, Safari:
	default:
		return nil, &ConfigurationError{Key: KeyBrowser, Reason: fmt.Sprintf("unsupported browser %q", cfg.Browser)}
	}

	switch cfg.Backend {
	case Local:
	case Grid:
		cfg.HubURL = getString(src, KeyGridURL, "http://localhost:4444/wd/hub")
	case Cloud:
		cfg.HubURL = getString(src, KeyCloudURL, "")
	default:
		return nil, &ConfigurationError{Key: KeyExecutionType, Reason: fmt.Sprintf("unsupported execution type %q", cfg.Backend)}
	}

	if cfg.Backend != Local && cfg.HubURL == "" {
		return nil, &ConfigurationError{Reason: "remote hub URL is not configured"}
	}

	for key, reason := range map[string]int{
		KeyImplicitWait: cfg.ImplicitWaitSeconds,
		KeyExplicitWait: cfg.ExplicitWaitSeconds,
		KeyRetryCount:   cfg.RetryCount,
	} {
		if reason < 0 {
			return nil, &ConfigurationError{Key: key, Reason: "must not be negative"}
		}
	}
	if cfg.Workers < 1 {
		return nil, &ConfigurationError{Key: KeyThreadCount, Reason: "must be at least 1"}
	}

	// Page-load timeout rides on the explicit wait but never drops
	// below the floor, matching the resolver contract.
	cfg.PageLoadTimeoutSeconds = cfg.ExplicitWaitSeconds
	if cfg.PageLoadTimeoutSeconds < minPageLoadSeconds {
		cfg.PageLoadTimeoutSeconds = minPageLoadSeconds
	}

	// Capability overrides are opaque passthrough values; only the
	// prefix is interpreted, never the value.
	for _, key := range src.Keys() {
		if strings.HasPrefix(key, OverridePrefix) && len(key) > len(OverridePrefix) {
			if v, ok := src.Get(key); ok {
				cfg.CapabilityOverrides[key[len(OverridePrefix):]] = v
			}
		}
	}

	return cfg, nil
}

func getString(src Source, key, def string) string {
	if v, ok := src.Get(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getBool(src Source, key string, def bool) (bool, error) {
	v, ok := src.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid boolean %q", v)}
}

func getInt(src Source, key string, def int) (int, error) {
	v, ok := src.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}
