package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
	"github.com/vidmill/videos-ms-go/internal/processing"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

type VideoRepository struct {
	db *sql.DB
}

// compile-time checks: *VideoRepository serves both the API use cases and
// the processing state machine
var (
	_ videoSvc.Repository   = (*VideoRepository)(nil)
	_ processing.Repository = (*VideoRepository)(nil)
)

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, title, description, category, visibility, owner_id, asset_key, size_bytes, duration_seconds, status, progress_percent, sensitivity, failure_message, created_at, updated_at`

func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	log.Printf("creating database record for video #%s, at status %q...", v.ID, v.Status)

	const query = `
      INSERT INTO videos
        (id, title, description, category, visibility, owner_id, asset_key, size_bytes, status, progress_percent, created_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.Title, v.Description, v.Category, v.Visibility,
		v.OwnerID, v.AssetKey, v.SizeBytes, v.Status, v.ProgressPercent, v.CreatedAt,
	)
	return err
}

func (r *VideoRepository) GetByID(ctx context.Context, id db.UUID) (*model.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	return scanVideo(row)
}

// Delete removes the record; sql.ErrNoRows reports that someone else already
// deleted it, which the concurrent-delete path relies on.
func (r *VideoRepository) Delete(ctx context.Context, id db.UUID) error {
	log.Printf("deleting database record for video #%s...", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// List applies the visibility rule and the optional filters in one query.
func (r *VideoRepository) List(ctx context.Context, filter videoSvc.ListFilter) ([]*model.Video, error) {
	var conds []string
	var args []interface{}

	isAdmin := filter.Caller.Role == model.RoleAdmin
	switch {
	case filter.OwnedOnly:
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.Caller.ID)
	case !isAdmin:
		conds = append(conds, "(visibility = ? OR owner_id = ?)")
		args = append(args, model.VisibilityPublic, filter.Caller.ID)
	}

	switch filter.SafetyStatus {
	case "safe":
		conds = append(conds, "JSON_EXTRACT(sensitivity, '$.is_safe') = TRUE")
	case "flagged":
		conds = append(conds, "JSON_EXTRACT(sensitivity, '$.is_safe') = FALSE")
	}

	if filter.Category != "" && filter.Category != "All" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.CreatedBefore)
	}
	if filter.MinSize != nil {
		conds = append(conds, "size_bytes >= ?")
		args = append(args, *filter.MinSize)
	}
	if filter.MaxSize != nil {
		conds = append(conds, "size_bytes <= ?")
		args = append(args, *filter.MaxSize)
	}
	if filter.MinDuration != nil {
		conds = append(conds, "duration_seconds >= ?")
		args = append(args, *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		conds = append(conds, "duration_seconds <= ?")
		args = append(args, *filter.MaxDuration)
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var videos []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// SetProcessing moves a pending video into processing. The status guard makes
// the transition atomic: a deleted or already-claimed record affects zero
// rows and surfaces as sql.ErrNoRows.
func (r *VideoRepository) SetProcessing(ctx context.Context, id db.UUID) error {
	log.Printf("updating database record for video #%s, with status %q...", id, model.VideoStatusProcessing)

	res, err := r.db.ExecContext(ctx, `
      UPDATE videos
      SET status = ?, progress_percent = 0
      WHERE id = ? AND status = ?
    `, model.VideoStatusProcessing, id, model.VideoStatusPending)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *VideoRepository) SetDuration(ctx context.Context, id db.UUID, seconds float64) error {
	res, err := r.db.ExecContext(ctx, `
      UPDATE videos
      SET duration_seconds = ?
      WHERE id = ? AND status = ?
    `, seconds, id, model.VideoStatusProcessing)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetProgress persists one tick. The progress guard keeps the sequence
// monotone even if a stale run ever raced a newer one.
func (r *VideoRepository) SetProgress(ctx context.Context, id db.UUID, percent int) error {
	res, err := r.db.ExecContext(ctx, `
      UPDATE videos
      SET progress_percent = ?
      WHERE id = ? AND status = ? AND progress_percent <= ?
    `, percent, id, model.VideoStatusProcessing, percent)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *VideoRepository) SetCompleted(ctx context.Context, id db.UUID, verdict model.Sensitivity) error {
	log.Printf("updating database record for video #%s, with status %q...", id, model.VideoStatusCompleted)

	res, err := r.db.ExecContext(ctx, `
      UPDATE videos
      SET status = ?, progress_percent = 100, sensitivity = ?
      WHERE id = ? AND status = ?
    `, model.VideoStatusCompleted, verdict, id, model.VideoStatusProcessing)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *VideoRepository) SetFailed(ctx context.Context, id db.UUID, reason string) error {
	log.Printf("updating database record for video #%s, with status %q...", id, model.VideoStatusFailed)

	res, err := r.db.ExecContext(ctx, `
      UPDATE videos
      SET status = ?, failure_message = ?
      WHERE id = ? AND status NOT IN (?, ?)
    `, model.VideoStatusFailed, reason, id, model.VideoStatusCompleted, model.VideoStatusFailed)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var v model.Video
	if err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.Category, &v.Visibility,
		&v.OwnerID, &v.AssetKey, &v.SizeBytes, &v.DurationSeconds,
		&v.Status, &v.ProgressPercent, &v.Sensitivity, &v.FailureMessage,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
