// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dosguard/common/daemon"
	"dosguard/common/httpserver"
	"dosguard/common/reporter"
	"dosguard/monitor/alert"
	"dosguard/monitor/blocker"
	"dosguard/monitor/detection"
	"dosguard/monitor/effector"
	"dosguard/monitor/intake"
	"dosguard/monitor/status"
	"dosguard/monitor/tracker"
)

// ServeConfiguration represents the configuration file for the serve
// command.
type ServeConfiguration struct {
	Reporting reporter.Configuration
	HTTP      httpserver.Configuration
	Tracker   tracker.Configuration
	Intake    intake.Configuration
	Detection detection.Configuration
	Effector  effector.Configuration
	Blocker   blocker.Configuration
	Alert     alert.Configuration
}

// Reset resets the configuration for the serve command to its default
// value.
func (c *ServeConfiguration) Reset() {
	*c = ServeConfiguration{
		Reporting: reporter.DefaultConfiguration(),
		HTTP:      httpserver.DefaultConfiguration(),
		Tracker:   tracker.DefaultConfiguration(),
		Intake:    intake.DefaultConfiguration(),
		Detection: detection.DefaultConfiguration(),
		Effector:  effector.DefaultConfiguration(),
		Blocker:   blocker.DefaultConfiguration(),
		Alert:     alert.DefaultConfiguration(),
	}
}

type serveOptions struct {
	ConfigRelatedOptions
	CheckMode bool
}

// ServeOptions stores the command-line option values for the serve
// command.
var ServeOptions serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start dosguard",
	Long: `Dosguard watches per-port traffic rates, classifies attack conditions and
drives a blocking policy with timed unblocks and a whitelist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := ServeConfiguration{}
		config.Reset()
		if len(args) > 0 {
			ServeOptions.Path = args[0]
		}
		if err := ServeOptions.Parse(cmd.OutOrStdout(), "serve", &config); err != nil {
			return err
		}

		r, err := reporter.New(config.Reporting)
		if err != nil {
			return fmt.Errorf("unable to initialize reporter: %w", err)
		}
		return serveStart(r, config, ServeOptions.CheckMode)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&ServeOptions.ConfigRelatedOptions.Dump, "dump", "D", false,
		"Dump configuration before starting")
	serveCmd.Flags().BoolVarP(&ServeOptions.CheckMode, "check", "C", false,
		"Check configuration, but does not start")
}

// serveStart starts all components and manages the daemon lifetime.
func serveStart(r *reporter.Reporter, config ServeConfiguration, checkOnly bool) error {
	daemonComponent, err := daemon.New(r)
	if err != nil {
		return fmt.Errorf("unable to initialize daemon component: %w", err)
	}
	httpComponent, err := httpserver.New(r, config.HTTP, httpserver.Dependencies{
		Daemon: daemonComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize http component: %w", err)
	}
	statusComponent, err := status.New(r, status.Dependencies{
		HTTP: httpComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize status component: %w", err)
	}
	alertComponent, err := alert.New(r, config.Alert, alert.Dependencies{
		Daemon: daemonComponent,
		HTTP:   httpComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize alert component: %w", err)
	}
	effectorComponent, err := effector.New(config.Effector)
	if err != nil {
		return fmt.Errorf("unable to initialize effector: %w", err)
	}
	blockerComponent, err := blocker.New(r, config.Blocker, blocker.Dependencies{
		Daemon:   daemonComponent,
		HTTP:     httpComponent,
		Effector: effectorComponent,
		Alert:    alertComponent,
		Status:   statusComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize blocker component: %w", err)
	}
	trackerComponent, err := tracker.New(r, config.Tracker)
	if err != nil {
		return fmt.Errorf("unable to initialize tracker component: %w", err)
	}
	intakeComponent, err := intake.New(r, config.Intake, intake.Dependencies{
		Daemon:  daemonComponent,
		HTTP:    httpComponent,
		Tracker: trackerComponent,
		Alert:   alertComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize intake component: %w", err)
	}
	detectionComponent, err := detection.New(r, config.Detection, detection.Dependencies{
		Daemon:  daemonComponent,
		Tracker: trackerComponent,
		Blocker: blockerComponent,
		Alert:   alertComponent,
		Status:  statusComponent,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize detection component: %w", err)
	}

	// Expose some informations and metrics
	addCommonHTTPHandlers(r, httpComponent)
	versionMetrics(r)

	// If we only asked for a check, stop here.
	if checkOnly {
		return nil
	}

	// Start all the components.
	components := []interface{}{
		httpComponent,
		alertComponent,
		blockerComponent,
		intakeComponent,
		detectionComponent,
	}
	return StartStopComponents(r, daemonComponent, components)
}
