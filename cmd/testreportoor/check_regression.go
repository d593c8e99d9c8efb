package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethpandaops/testreportoor/pkg/config"
	"github.com/ethpandaops/testreportoor/pkg/discovery"
	"github.com/ethpandaops/testreportoor/pkg/notify"
	"github.com/ethpandaops/testreportoor/pkg/regression"
	"github.com/ethpandaops/testreportoor/pkg/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkRegressionCmd = &cobra.Command{
	Use:   "check-regression",
	Short: "Compare the two most recent reports and notify on regressions",
	Long: `Compares the newest report with the one before it. When the current
run has failures, new failures or fewer passing tests, an email is sent
to the configured recipients.`,
	RunE: runCheckRegression,
}

var (
	regReportsDir string
	regDryRun     bool
)

// newTransport builds the notification transport from SMTP settings.
var newTransport = func(cfg config.SMTPConfig) notify.Transport {
	return notify.NewSMTPTransport(cfg)
}

func init() {
	rootCmd.AddCommand(checkRegressionCmd)
	checkRegressionCmd.Flags().StringVar(&regReportsDir, "reports-dir", "",
		"Reports directory (overrides config)")
	checkRegressionCmd.Flags().BoolVar(&regDryRun, "dry-run", false,
		"Detect and format the notification without sending it")
}

func runCheckRegression(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reportsDir := cfg.Paths.ReportsDir
	if regReportsDir != "" {
		reportsDir = regReportsDir
	}

	reports, err := discovery.RecentReports(reportsDir, 2)
	if err != nil {
		return err
	}

	if len(reports) < 2 {
		log.WithField("reports_dir", reportsDir).
			Infof("Need at least 2 reports, found %d", len(reports))

		return nil
	}

	current, err := report.LoadSummary(reports[0])
	if err != nil {
		return err
	}

	previous, err := report.LoadSummary(reports[1])
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"current":  filepath.Base(current.Path),
		"previous": filepath.Base(previous.Path),
	}).Info("Comparing reports")

	verdict := regression.Detect(current, previous)
	if verdict == nil {
		log.Info("All tests passing - no notification needed")

		return nil
	}

	notifier := notify.New(log, cfg.Notify, newTransport(cfg.Notify.SMTP))
	msg := notifier.Format(verdict, current, previous)

	if regDryRun {
		fmt.Fprintf(cmd.OutOrStdout(),
			"\n[DRY RUN] Would send email:\nSubject: %s\n\n%s\n", msg.Subject, msg.Body)

		return nil
	}

	err = notifier.Notify(cmd.Context(), msg)

	switch {
	case errors.Is(err, notify.ErrNoRecipients):
		log.Warn("No recipients configured (EMAIL_RECIPIENTS), skipping notification")

		return nil
	case errors.Is(err, notify.ErrNotConfigured):
		log.Warn("SMTP not configured (missing SMTP_HOST, SMTP_USER, or SMTP_PASSWORD), skipping notification")

		return nil
	default:
		return err
	}
}
