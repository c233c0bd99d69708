package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/activity-media-api/internal/dto"
	"github.com/noah-isme/activity-media-api/internal/models"
	"github.com/noah-isme/activity-media-api/internal/service"
	appErrors "github.com/noah-isme/activity-media-api/pkg/errors"
	"github.com/noah-isme/activity-media-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, params service.SubmitParams) (*models.MediaSubmission, error)
	CheckStatus(ctx context.Context, userID, topic string, activityNo int) (*dto.SubmissionStatusResponse, error)
	ListVideosByTopic(ctx context.Context, topic string) ([]models.VideoListItem, error)
	ListPhotosByTopic(ctx context.Context, topic string) ([]models.PhotoListItem, error)
}

// SubmissionHandler manages the media submission HTTP endpoints. It is also
// the temporary upload receiver: inbound files are parked on scratch disk and
// filtered against the per-endpoint MIME allow-list before any business logic
// runs.
type SubmissionHandler struct {
	service     submissionService
	scratch     Stager
	maxFileSize int64
}

// Stager parks an inbound stream on scratch storage.
type Stager interface {
	Stage(originalName string, r io.Reader) (string, error)
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(svc submissionService, scratch Stager, maxFileSize int64) *SubmissionHandler {
	return &SubmissionHandler{service: svc, scratch: scratch, maxFileSize: maxFileSize}
}

// UploadImage godoc
// @Summary Submit the photo for an activity
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param userId path string true "User ID"
// @Param topic path string true "Topic"
// @Param activityNo path int true "Activity number"
// @Param file formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Router /activities/{userId}/{topic}/{activityNo}/image [post]
func (h *SubmissionHandler) UploadImage(c *gin.Context) {
	h.upload(c, models.MediaKindPhoto)
}

// UploadVideo godoc
// @Summary Submit the video for an activity
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param userId path string true "User ID"
// @Param topic path string true "Topic"
// @Param activityNo path int true "Activity number"
// @Param file formData file true "Video file"
// @Success 200 {object} response.Envelope
// @Router /activities/{userId}/{topic}/{activityNo}/video [post]
func (h *SubmissionHandler) UploadVideo(c *gin.Context) {
	h.upload(c, models.MediaKindVideo)
}

func (h *SubmissionHandler) upload(c *gin.Context, kind models.MediaKind) {
	var params dto.SubmissionParams
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing required parameters (userId, topic, activityNo)"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s file is required", kindNoun(kind))))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", h.maxFileSize)))
		return
	}

	// Endpoint-level filter: reject disallowed types before staging anything.
	mimeType := fileHeader.Header.Get("Content-Type")
	if !kind.AllowsMIME(mimeType) {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidMediaType,
			fmt.Sprintf("invalid file type, only %s files are allowed", kindNoun(kind))))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file"))
		return
	}
	defer src.Close() //nolint:errcheck

	path, err := h.scratch.Stage(fileHeader.Filename, src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage uploaded file"))
		return
	}

	item, err := h.service.Submit(c.Request.Context(), service.SubmitParams{
		UserID:     params.UserID,
		Topic:      params.Topic,
		ActivityNo: params.ActivityNo,
		Kind:       kind,
		File: &service.StagedFile{
			Path:         path,
			OriginalName: fileHeader.Filename,
			MimeType:     mimeType,
			Size:         fileHeader.Size,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, map[string]interface{}{
		"message": fmt.Sprintf("%s uploaded successfully", kindNoun(kind)),
	})
}

// Status godoc
// @Summary Submission status for both media kinds
// @Tags Submissions
// @Produce json
// @Param userId path string true "User ID"
// @Param topic path string true "Topic"
// @Param activityNo path int true "Activity number"
// @Success 200 {object} response.Envelope
// @Router /activities/{userId}/{topic}/{activityNo} [get]
func (h *SubmissionHandler) Status(c *gin.Context) {
	var params dto.SubmissionParams
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing required parameters (userId, topic, activityNo)"))
		return
	}
	status, err := h.service.CheckStatus(c.Request.Context(), params.UserID, params.Topic, params.ActivityNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// ListVideos godoc
// @Summary List video submissions for a topic
// @Tags Listings
// @Produce json
// @Param topic path string true "Topic"
// @Success 200 {object} response.Envelope
// @Router /topics/{topic}/videos [get]
func (h *SubmissionHandler) ListVideos(c *gin.Context) {
	items, err := h.service.ListVideosByTopic(c.Request.Context(), strings.TrimSpace(c.Param("topic")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListImages godoc
// @Summary List photo submissions for a topic
// @Tags Listings
// @Produce json
// @Param topic path string true "Topic"
// @Success 200 {object} response.Envelope
// @Router /topics/{topic}/images [get]
func (h *SubmissionHandler) ListImages(c *gin.Context) {
	items, err := h.service.ListPhotosByTopic(c.Request.Context(), strings.TrimSpace(c.Param("topic")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

func kindNoun(kind models.MediaKind) string {
	if kind == models.MediaKindVideo {
		return "video"
	}
	return "image"
}
