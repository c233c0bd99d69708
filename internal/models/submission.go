package models

import (
	"fmt"
	"strings"
	"time"
)

// Topic is the closed set of categories activities are organized under.
type Topic string

const (
	TopicArchimedes Topic = "Archimedes"
	TopicMarieCurie Topic = "MarieCurie"
	TopicTesla      Topic = "Tesla"
	TopicEinstein   Topic = "Einstein"
)

// Topics lists the valid members in a stable order for error messages.
var Topics = []Topic{TopicArchimedes, TopicMarieCurie, TopicTesla, TopicEinstein}

// ParseTopic normalizes boundary input to the canonical space-free enum, so
// "Marie Curie" and "MarieCurie" map to the same persisted value.
func ParseTopic(raw string) (Topic, error) {
	canonical := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	for _, t := range Topics {
		if strings.EqualFold(canonical, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topic %q", raw)
}

// TopicNames returns the valid topics joined for client-facing messages.
func TopicNames() string {
	names := make([]string, len(Topics))
	for i, t := range Topics {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// MediaKind discriminates photo and video submissions.
type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindVideo MediaKind = "video"
)

// AllowedMIMEs returns the MIME allow-list for the media kind.
func (k MediaKind) AllowedMIMEs() []string {
	switch k {
	case MediaKindPhoto:
		return []string{"image/jpeg", "image/png", "image/jpg", "image/webp"}
	case MediaKindVideo:
		return []string{"video/mp4", "video/mkv", "video/avi", "video/webm"}
	default:
		return nil
	}
}

// AllowsMIME reports whether the MIME type is acceptable for the kind.
func (k MediaKind) AllowsMIME(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, allowed := range k.AllowedMIMEs() {
		if mime == allowed {
			return true
		}
	}
	return false
}

// SubmissionKey identifies the unique tuple one submission may exist for.
type SubmissionKey struct {
	UserID       string
	Topic        Topic
	ActivityNo   int
	ActivityType MediaKind
}

// MediaSubmission is one accepted upload. Rows are created exactly once and
// never mutated afterwards.
type MediaSubmission struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	Topic        Topic     `db:"topic" json:"topic"`
	ActivityNo   int       `db:"activity_no" json:"activityNo"`
	ActivityType MediaKind `db:"activity_type" json:"activityType"`
	FileURL      string    `db:"file_url" json:"fileUrl"`
	PosterImage  *string   `db:"poster_image" json:"posterImage,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the uniqueness tuple for the row.
func (m *MediaSubmission) Key() SubmissionKey {
	return SubmissionKey{
		UserID:       m.UserID,
		Topic:        m.Topic,
		ActivityNo:   m.ActivityNo,
		ActivityType: m.ActivityType,
	}
}

// VideoListItem is the per-topic video projection served by the listing
// endpoint.
type VideoListItem struct {
	ActivityNo  int     `db:"activity_no" json:"activityNo"`
	FileURL     string  `db:"file_url" json:"fileUrl"`
	PosterImage *string `db:"poster_image" json:"posterImage,omitempty"`
}

// PhotoListItem is the per-topic photo projection.
type PhotoListItem struct {
	ActivityNo int    `db:"activity_no" json:"activityNo"`
	FileURL    string `db:"file_url" json:"fileUrl"`
}
