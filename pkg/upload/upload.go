package upload

import "context"

// Uploader publishes rendered reports to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	// Writes a small test object to the bucket to fail fast on misconfiguration.
	Preflight(ctx context.Context) error

	// Upload stores the report at localPath and returns the remote key.
	// The file basename is used under the configured remote prefix.
	Upload(ctx context.Context, localPath string) (string, error)
}
