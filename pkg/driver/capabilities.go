package driver

import (
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"github.com/entrhq/gauntlet/pkg/config"
)

// Capability keys cloud providers conventionally accept for
// credentials. Provider-specific keys go through cap.* overrides,
// which are merged after these and therefore win.
const (
	capUsername  = "username"
	capAccessKey = "accessKey"
)

// BuildCapabilities returns the backend-agnostic capability set for
// the given browser kind. Capability overrides and cloud credentials
// are merged later, in sessionCapabilities.
func BuildCapabilities(browser config.Browser, headless bool) (selenium.Capabilities, error) {
	switch browser {
	case config.Chrome:
		caps := selenium.Capabilities{"browserName": "chrome"}
		args := []string{
			"--disable-gpu",
			"--window-size=1920,1080",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-infobars",
			"--remote-allow-origins=*",
		}
		if headless {
			args = append([]string{"--headless=new"}, args...)
		}
		caps.AddChrome(chrome.Capabilities{Args: args, W3C: true})
		return caps, nil

	case config.Firefox:
		caps := selenium.Capabilities{"browserName": "firefox"}
		var args []string
		if headless {
			args = append(args, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: args})
		return caps, nil

	case config.Edge:
		caps := selenium.Capabilities{"browserName": "MicrosoftEdge"}
		args := []string{"--window-size=1920,1080"}
		if headless {
			args = append([]string{"--headless=new"}, args...)
		}
		caps["ms:edgeOptions"] = map[string]interface{}{"args": args}
		return caps, nil

	case config.Safari:
		// Safari has no headless mode; the flag is ignored.
		return selenium.Capabilities{"browserName": "safari"}, nil
	}

	return nil, &UnsupportedBrowserError{Browser: browser}
}

// sessionCapabilities assembles the full capability set for one
// session: browser options, then cloud credentials for the cloud
// backend, then every cap.* override. Merge order is load-bearing —
// overrides are applied last so an override value always wins over a
// generically derived capability with the same key.
func sessionCapabilities(cfg *config.Config) (selenium.Capabilities, error) {
	caps, err := BuildCapabilities(cfg.Browser, cfg.Headless)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == config.Cloud {
		if cfg.CloudUser != "" {
			caps[capUsername] = cfg.CloudUser
		}
		if cfg.CloudKey != "" {
			caps[capAccessKey] = cfg.CloudKey
		}
	}

	for key, value := range cfg.CapabilityOverrides {
		caps[key] = value
	}

	return caps, nil
}
