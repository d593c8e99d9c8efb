package main

import (
	"fmt"

	"github.com/ethpandaops/testreportoor/pkg/upload"
	"github.com/spf13/cobra"
)

var uploadReportPath string

var uploadReportCmd = &cobra.Command{
	Use:   "upload-report",
	Short: "Upload a report to remote storage",
	Long:  `Upload a generated markdown report to S3-compatible storage using the config settings.`,
	RunE:  runUploadReport,
}

func init() {
	rootCmd.AddCommand(uploadReportCmd)
	uploadReportCmd.Flags().StringVar(&uploadReportPath, "report", "",
		"Path to the report to upload")

	_ = uploadReportCmd.MarkFlagRequired("report")
}

func runUploadReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.Upload.S3.Enabled {
		return fmt.Errorf("S3 upload is not enabled in config")
	}

	uploader, err := upload.NewS3Uploader(log, &cfg.Upload.S3)
	if err != nil {
		return fmt.Errorf("creating S3 uploader: %w", err)
	}

	ctx := cmd.Context()

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	log.WithField("report", uploadReportPath).Info("Uploading report")

	key, err := uploader.Upload(ctx, uploadReportPath)
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}

	log.WithField("key", key).Info("Upload completed successfully")

	return nil
}
