package pending

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles all pending-upload database operations.
type Repository struct {
	db         *pgxpool.Pool
	maxRetries int
}

// NewRepository creates a Repository on the given pool. Rows whose
// retry_count has reached maxRetries are no longer listed; they stay in the
// table for operators to inspect.
func NewRepository(db *pgxpool.Pool, maxRetries int) *Repository {
	return &Repository{db: db, maxRetries: maxRetries}
}

// ListPending returns up to limit rows still eligible for upload, in
// ascending id order so retries keep a stable position in the queue.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, image_id, acquisition_id, local_path, content_type, retry_count, created_at
		 FROM pending_uploads
		 WHERE retry_count < $1
		 ORDER BY id
		 LIMIT $2`,
		r.maxRetries, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.ImageID, &u.AcquisitionID, &u.LocalPath, &u.ContentType, &u.RetryCount, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending uploads: %w", err)
	}
	return uploads, nil
}

// Delete removes a row after its upload has been confirmed.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM pending_uploads WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("delete pending upload %d: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed attempt: the row keeps its place in the queue
// but carries the error and an incremented retry_count.
func (r *Repository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE pending_uploads
		 SET status = 'failed',
		     last_error = $1,
		     retry_count = retry_count + 1
		 WHERE id = $2`,
		errMsg, id,
	); err != nil {
		return fmt.Errorf("mark upload %d failed: %w", id, err)
	}
	return nil
}

// RecordUploaded inserts the audit row for a confirmed upload. It is written
// before the pending row is deleted, so a crash between the two leaves a
// harmless duplicate candidate rather than an untracked object.
func (r *Repository) RecordUploaded(ctx context.Context, u Upload, bucket string) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO uploaded_objects (image_id, acquisition_id, local_path, object_key, bucket)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ImageID, u.AcquisitionID, u.LocalPath, u.Key(), bucket,
	); err != nil {
		return fmt.Errorf("record uploaded object for %d: %w", u.ID, err)
	}
	return nil
}
