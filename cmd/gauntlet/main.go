// Package main provides the gauntlet command line tool. It resolves
// execution configuration, verifies that a browser backend is
// reachable and prints the effective settings a suite would run with.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/entrhq/gauntlet/pkg/artifacts"
	"github.com/entrhq/gauntlet/pkg/config"
	"github.com/entrhq/gauntlet/pkg/driver"
	"github.com/entrhq/gauntlet/pkg/logging"
	"github.com/entrhq/gauntlet/pkg/page"
	"github.com/entrhq/gauntlet/pkg/session"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	root := &cobra.Command{
		Use:           "gauntlet",
		Short:         "Browser test execution harness",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a properties configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatText), "log format (text, json)")

	root.AddCommand(newConfigCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	return logging.New(os.Stderr, logLevel, logging.Format(logFormat))
}

// loadConfig resolves the effective configuration from the file named
// by --config, or from environment variables alone when the flag is
// unset.
func loadConfig() (*config.Config, error) {
	var src config.Source
	if configPath != "" {
		fileSrc, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		src = fileSrc
	} else {
		src = config.MapSource{}
	}
	return config.Resolve(src)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved execution configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "browser            %s\n", cfg.Browser)
			fmt.Fprintf(out, "headless           %t\n", cfg.Headless)
			fmt.Fprintf(out, "backend            %s\n", cfg.Backend)
			fmt.Fprintf(out, "hub url            %s\n", cfg.HubURL)
			fmt.Fprintf(out, "base url           %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "workers            %d\n", cfg.Workers)
			fmt.Fprintf(out, "implicit wait      %ds\n", cfg.ImplicitWaitSeconds)
			fmt.Fprintf(out, "explicit wait      %ds\n", cfg.ExplicitWaitSeconds)
			fmt.Fprintf(out, "page load timeout  %ds\n", cfg.PageLoadTimeoutSeconds)
			fmt.Fprintf(out, "retry enabled      %t\n", cfg.RetryEnabled)
			fmt.Fprintf(out, "retry count        %d\n", cfg.RetryCount)
			fmt.Fprintf(out, "report dir         %s\n", cfg.ReportDir)
			fmt.Fprintf(out, "screenshot on fail %t\n", cfg.ScreenshotOnFail)

			if len(cfg.CapabilityOverrides) > 0 {
				keys := make([]string, 0, len(cfg.CapabilityOverrides))
				for k := range cfg.CapabilityOverrides {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(out, "capability overrides:")
				for _, k := range keys {
					fmt.Fprintf(out, "  %s = %s\n", k, cfg.CapabilityOverrides[k])
				}
			}
			return nil
		},
	}
}

// newCheckCmd wires the full stack once: open a session against the
// configured backend, navigate to the base URL and tear down again.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Open one session against the configured backend and navigate to the base URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()

			recorder := artifacts.NewRecorder(cfg, logger)
			registry := session.NewRegistry(driver.NewFactory(logger), recorder, logger)
			defer registry.CloseAll()

			return registry.With("worker-1", cfg, func(sess *session.Session) error {
				p := page.New(sess, recorder, logger)
				if err := p.Open(cfg.BaseURL); err != nil {
					return fmt.Errorf("navigating to %s: %w", cfg.BaseURL, err)
				}
				title, err := p.Title()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s) opened %q\n", cfg.Browser, cfg.Backend, title)
				return nil
			})
		},
	}
}
