package mediahost

import "context"

// Kind selects the remote resource type for an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// UploadInput wraps the payload required for pushing a staged file.
type UploadInput struct {
	Path string
	Kind Kind
}

// UploadResult captures the canonical media URL and, for videos, the derived
// poster thumbnail URL when the host produced one.
type UploadResult struct {
	URL       string
	PosterURL string
}

// Uploader hides the backing media host implementation.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}
