package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/activity-media-api/internal/models"
)

// ErrDuplicateSubmission signals that the uniqueness tuple already has a row.
var ErrDuplicateSubmission = errors.New("submission already exists")

// QueryTimer receives per-query durations for instrumentation.
type QueryTimer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SubmissionRepository handles media submission persistence.
type SubmissionRepository struct {
	db    *sqlx.DB
	timer QueryTimer
}

// NewSubmissionRepository constructs the repository. A nil timer disables
// query timing.
func NewSubmissionRepository(db *sqlx.DB, timer QueryTimer) *SubmissionRepository {
	return &SubmissionRepository{db: db, timer: timer}
}

func (r *SubmissionRepository) observe(label string, start time.Time) {
	if r.timer != nil {
		r.timer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts a submission row if and only if no row exists for the same
// (user_id, topic, activity_no, activity_type) tuple. The conditional insert
// relies on the table's unique index, so two concurrent identical requests
// resolve to exactly one created row; the loser gets ErrDuplicateSubmission.
func (r *SubmissionRepository) Create(ctx context.Context, item *models.MediaSubmission) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	const query = `INSERT INTO media_submissions
	(id, user_id, topic, activity_no, activity_type, file_url, poster_image, created_at, updated_at)
	VALUES (:id, :user_id, :topic, :activity_no, :activity_type, :file_url, :poster_image, :created_at, :updated_at)
	ON CONFLICT (user_id, topic, activity_no, activity_type) DO NOTHING`
	defer r.observe("create", time.Now())
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("create media submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check media submission insert: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateSubmission
	}
	return nil
}

// Exists reports whether a submission already exists for the tuple.
func (r *SubmissionRepository) Exists(ctx context.Context, key models.SubmissionKey) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM media_submissions
	WHERE user_id = $1 AND topic = $2 AND activity_no = $3 AND activity_type = $4)`
	defer r.observe("exists", time.Now())
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, key.UserID, key.Topic, key.ActivityNo, key.ActivityType); err != nil {
		return false, fmt.Errorf("check media submission existence: %w", err)
	}
	return exists, nil
}

// ListVideosByTopic returns the video projection for a topic in store order.
func (r *SubmissionRepository) ListVideosByTopic(ctx context.Context, topic models.Topic) ([]models.VideoListItem, error) {
	const query = `SELECT activity_no, file_url, poster_image
	FROM media_submissions
	WHERE topic = $1 AND activity_type = $2`
	defer r.observe("list_videos", time.Now())
	items := make([]models.VideoListItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, topic, models.MediaKindVideo); err != nil {
		return nil, fmt.Errorf("list videos by topic: %w", err)
	}
	return items, nil
}

// ListPhotosByTopic returns the photo projection for a topic in store order.
func (r *SubmissionRepository) ListPhotosByTopic(ctx context.Context, topic models.Topic) ([]models.PhotoListItem, error) {
	const query = `SELECT activity_no, file_url
	FROM media_submissions
	WHERE topic = $1 AND activity_type = $2`
	defer r.observe("list_photos", time.Now())
	items := make([]models.PhotoListItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, topic, models.MediaKindPhoto); err != nil {
		return nil, fmt.Errorf("list photos by topic: %w", err)
	}
	return items, nil
}
