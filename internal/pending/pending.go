// Package pending manages the queue of image rows awaiting transfer to
// object storage.
package pending

import (
	"strings"
	"time"
)

// Upload is one row of the pending_uploads table: an image on the local
// share that has not yet been confirmed present in object storage. A row
// exists exactly as long as its file is unconfirmed; the only mutation
// besides deletion is the failure bookkeeping (status, last_error,
// retry_count).
type Upload struct {
	ID            int64
	ImageID       int64
	AcquisitionID int64
	LocalPath     string
	ContentType   *string
	RetryCount    int
	CreatedAt     time.Time
}

// Key returns the destination key for the row. It is derived from the
// local path with leading slashes trimmed, so re-uploads of the same row
// always target the same object.
func (u *Upload) Key() string {
	return strings.TrimLeft(u.LocalPath, "/")
}
