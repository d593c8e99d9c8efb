package report

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/ethpandaops/testreportoor/pkg/fsutil"
	"github.com/sirupsen/logrus"
)

// Writer persists rendered reports to disk.
type Writer struct {
	log   logrus.FieldLogger
	owner *fsutil.OwnerConfig
}

// NewWriter creates a Writer. owner may be nil to keep the process
// owner on written files.
func NewWriter(log logrus.FieldLogger, owner *fsutil.OwnerConfig) *Writer {
	return &Writer{
		log:   log.WithField("component", "report-writer"),
		owner: owner,
	}
}

// Write stores markdown at path, creating the directory if needed and
// replacing any existing report.
func (w *Writer) Write(path, markdown string) error {
	if err := fsutil.ReplaceFile(path, []byte(markdown), 0o644, w.owner); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}

	w.log.WithFields(logrus.Fields{
		"path": path,
		"size": units.HumanSize(float64(len(markdown))),
	}).Debug("Report written")

	return nil
}
