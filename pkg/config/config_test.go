package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(MapSource{})
	require.NoError(t, err)

	assert.Equal(t, Chrome, cfg.Browser)
	assert.False(t, cfg.Headless)
	assert.Equal(t, Local, cfg.Backend)
	assert.Empty(t, cfg.HubURL)
	assert.Equal(t, 0, cfg.ImplicitWaitSeconds)
	assert.Equal(t, 20, cfg.ExplicitWaitSeconds)
	assert.False(t, cfg.RetryEnabled)
	assert.Equal(t, 0, cfg.RetryCount)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.ScreenshotOnFail)
	assert.Empty(t, cfg.CapabilityOverrides)
}

func TestResolve_PageLoadTimeoutFloor(t *testing.T) {
	tests := []struct {
		name         string
		explicitWait string
		want         int
	}{
		{name: "short wait floored at 30", explicitWait: "5", want: 30},
		{name: "long wait kept", explicitWait: "45", want: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(MapSource{KeyExplicitWait: tt.explicitWait})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.PageLoadTimeoutSeconds)
		})
	}
}

func TestResolve_BackendHubSelection(t *testing.T) {
	grid, err := Resolve(MapSource{KeyExecutionType: "grid"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4444/wd/hub", grid.HubURL)

	cloud, err := Resolve(MapSource{
		KeyExecutionType: "cloud",
		KeyCloudURL:      "https://hub.example.com/wd/hub",
		KeyCloudUser:     "alice",
		KeyCloudKey:      "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com/wd/hub", cloud.HubURL)
	assert.Equal(t, "alice", cloud.CloudUser)
	assert.Equal(t, "secret", cloud.CloudKey)
}

func TestResolve_CloudWithoutHubURL(t *testing.T) {
	_, err := Resolve(MapSource{KeyExecutionType: "cloud"})
	require.Error(t, err)

	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "remote hub URL is not configured")
}

func TestResolve_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  MapSource
	}{
		{name: "unknown browser", src: MapSource{KeyBrowser: "opera"}},
		{name: "unknown backend", src: MapSource{KeyExecutionType: "docker"}},
		{name: "bad bool", src: MapSource{KeyHeadless: "maybe"}},
		{name: "bad int", src: MapSource{KeyRetryCount: "two"}},
		{name: "negative wait", src: MapSource{KeyImplicitWait: "-1"}},
		{name: "zero workers", src: MapSource{KeyThreadCount: "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.src)
			var cerr *ConfigurationError
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestResolve_CapabilityOverrides(t *testing.T) {
	cfg, err := Resolve(MapSource{
		"cap.platformName":   "Windows 11",
		"cap.browserVersion": "latest",
		"cap.":               "ignored, no suffix",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"platformName":   "Windows 11",
		"browserVersion": "latest",
	}, cfg.CapabilityOverrides)
}

func TestResolve_BrowserCaseInsensitive(t *testing.T) {
	cfg, err := Resolve(MapSource{KeyBrowser: "Firefox"})
	require.NoError(t, err)
	assert.Equal(t, Firefox, cfg.Browser)
}

func TestOverlay_Precedence(t *testing.T) {
	src := Overlay(
		MapSource{KeyBrowser: "edge"},
		MapSource{KeyBrowser: "chrome", KeyHeadless: "true"},
	)

	cfg, err := Resolve(src)
	require.NoError(t, err)
	assert.Equal(t, Edge, cfg.Browser, "first source wins")
	assert.True(t, cfg.Headless, "fallthrough to later source")
}

func TestLoadFile_Properties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.properties")
	content := "browser=firefox\nheadless=true\nexplicit.wait=25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)

	cfg, err := Resolve(src)
	require.NoError(t, err)
	assert.Equal(t, Firefox, cfg.Browser)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 25, cfg.ExplicitWaitSeconds)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.properties"))
	require.Error(t, err)
}
