package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethpandaops/testreportoor/pkg/discovery"
	"github.com/ethpandaops/testreportoor/pkg/fsutil"
	"github.com/ethpandaops/testreportoor/pkg/logparse"
	"github.com/ethpandaops/testreportoor/pkg/report"
	"github.com/ethpandaops/testreportoor/pkg/upload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var generateReportCmd = &cobra.Command{
	Use:   "generate-report",
	Short: "Generate a markdown report from a test run log",
	Long: `Parses a test run log (the most recent test_run_*.log in the logs
directory unless --log is given) and writes a markdown report.`,
	RunE: runGenerateReport,
}

var (
	genLogPath    string
	genOutput     string
	genLogsDir    string
	genReportsDir string
)

func init() {
	rootCmd.AddCommand(generateReportCmd)
	generateReportCmd.Flags().StringVar(&genLogPath, "log", "",
		"Path to a specific log file (default: most recent log)")
	generateReportCmd.Flags().StringVar(&genOutput, "output", "",
		"Output path for the report (default: <reports-dir>/test_<timestamp>.md)")
	generateReportCmd.Flags().StringVar(&genLogsDir, "logs-dir", "",
		"Directory searched for test_run_*.log files (overrides config)")
	generateReportCmd.Flags().StringVar(&genReportsDir, "reports-dir", "",
		"Directory reports are written to (overrides config)")
}

func runGenerateReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logsDir := cfg.Paths.LogsDir
	if genLogsDir != "" {
		logsDir = genLogsDir
	}

	reportsDir := cfg.Paths.ReportsDir
	if genReportsDir != "" {
		reportsDir = genReportsDir
	}

	logPath, err := resolveLogPath(genLogPath, logsDir)
	if err != nil {
		return err
	}

	log.WithField("log", logPath).Info("Parsing log file")

	result, err := logparse.ParseFile(logPath)
	if err != nil {
		return fmt.Errorf("parsing log: %w", err)
	}

	if result.Failed != len(result.FailedEntries) {
		log.WithFields(logrus.Fields{
			"summary_failed":  result.Failed,
			"itemized_failed": len(result.FailedEntries),
		}).Warn("Failed count in summary does not match itemized failures")
	}

	output := genOutput
	if output == "" {
		output = discovery.ReportPath(reportsDir, logPath, time.Now())
	}

	owner, err := fsutil.ParseOwner(cfg.Report.Owner)
	if err != nil {
		return fmt.Errorf("parsing report owner: %w", err)
	}

	md := report.Render(result, report.LogRef(logPath))

	if err := report.NewWriter(log, owner).Write(output, md); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), output, result)

	if cfg.Upload.S3.Enabled {
		uploader, err := upload.NewS3Uploader(log, &cfg.Upload.S3)
		if err != nil {
			return fmt.Errorf("creating S3 uploader: %w", err)
		}

		if _, err := uploader.Upload(cmd.Context(), output); err != nil {
			return fmt.Errorf("uploading report: %w", err)
		}
	}

	return nil
}

// resolveLogPath returns the explicit log if it exists, otherwise the
// newest log in logsDir.
func resolveLogPath(explicit, logsDir string) (string, error) {
	if explicit == "" {
		path, err := discovery.LatestLog(logsDir)
		if err != nil {
			return "", err
		}

		return path, nil
	}

	info, err := os.Stat(explicit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}

		return "", fmt.Errorf("stat log file: %w", err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("log path %s is a directory", explicit)
	}

	return explicit, nil
}

// printSummary echoes the run summary to the console. Unlike the report
// body, which shows 0.00% for an empty run, the console prints N/A when
// there are no tests.
func printSummary(w io.Writer, output string, result logparse.RunResult) {
	fmt.Fprintf(w, "Report generated: %s\n\n", output)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total Tests: %d\n", result.Total)
	fmt.Fprintf(w, "  Passed: %d ✅\n", result.Passed)
	fmt.Fprintf(w, "  Failed: %d ❌\n", result.Failed)

	if result.Total > 0 {
		fmt.Fprintf(w, "  Success Rate: %.2f%%\n", report.SuccessRate(result.Passed, result.Total))
	} else {
		fmt.Fprintln(w, "  Success Rate: N/A")
	}
}
