package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/activity-media-api/internal/dto"
	"github.com/noah-isme/activity-media-api/internal/mediahost"
	"github.com/noah-isme/activity-media-api/internal/models"
	"github.com/noah-isme/activity-media-api/internal/repository"
	appErrors "github.com/noah-isme/activity-media-api/pkg/errors"
	"github.com/noah-isme/activity-media-api/pkg/middleware/requestid"
)

type submissionStore interface {
	Create(ctx context.Context, item *models.MediaSubmission) error
	Exists(ctx context.Context, key models.SubmissionKey) (bool, error)
	ListVideosByTopic(ctx context.Context, topic models.Topic) ([]models.VideoListItem, error)
	ListPhotosByTopic(ctx context.Context, topic models.Topic) ([]models.PhotoListItem, error)
}

type scratchRemover interface {
	Remove(path string) error
}

// StagedFile describes an inbound file the receiver parked on scratch disk.
type StagedFile struct {
	Path         string
	OriginalName string
	MimeType     string
	Size         int64
}

// SubmitParams carries one admission request through the pipeline.
type SubmitParams struct {
	UserID     string
	Topic      string
	ActivityNo int
	Kind       models.MediaKind
	File       *StagedFile
}

// SubmissionServiceConfig holds pipeline tuning parameters.
type SubmissionServiceConfig struct {
	UploadTimeout   time.Duration
	ListingCacheTTL time.Duration
}

// SubmissionService orchestrates the admission pipeline and the read paths.
type SubmissionService struct {
	repo      submissionStore
	scratch   scratchRemover
	uploader  mediahost.Uploader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubmissionServiceConfig
}

// NewSubmissionService constructs the service.
func NewSubmissionService(repo submissionStore, scratch scratchRemover, uploader mediahost.Uploader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SubmissionServiceConfig) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 60 * time.Second
	}
	return &SubmissionService{
		repo:      repo,
		scratch:   scratch,
		uploader:  uploader,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Submit runs the admission pipeline: validate parameters and topic, reject
// duplicates before touching the remote host, validate the staged file, push
// it to the media host, persist the record with a conditional insert, and
// clean up the scratch file. Cleanup is attempted on every exit path once a
// file was staged; its failure is observed but never surfaced.
func (s *SubmissionService) Submit(ctx context.Context, params SubmitParams) (*models.MediaSubmission, error) {
	if params.File != nil && params.File.Path != "" {
		defer s.cleanupScratch(params.File.Path)
	}

	if err := s.validateParams(params.UserID, params.Topic, params.ActivityNo); err != nil {
		return nil, err
	}

	topic, err := models.ParseTopic(params.Topic)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTopic,
			fmt.Sprintf("invalid topic %q, valid topics: %s", params.Topic, models.TopicNames()))
	}

	key := models.SubmissionKey{
		UserID:       params.UserID,
		Topic:        topic,
		ActivityNo:   params.ActivityNo,
		ActivityType: params.Kind,
	}

	exists, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing submission")
	}
	if exists {
		return nil, duplicateError(params.Kind)
	}

	if params.File == nil || params.File.Path == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s file is required", kindNoun(params.Kind)))
	}
	if params.File.MimeType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file mime type is required")
	}
	if !params.Kind.AllowsMIME(params.File.MimeType) {
		return nil, appErrors.Clone(appErrors.ErrInvalidMediaType,
			fmt.Sprintf("invalid file type, please upload a valid %s (%s)", kindNoun(params.Kind), allowedExtensions(params.Kind)))
	}

	result, err := s.upload(ctx, params)
	if err != nil {
		s.logger.Error("media host upload failed",
			zap.String("user_id", params.UserID),
			zap.String("topic", string(topic)),
			zap.Int("activity_no", params.ActivityNo),
			zap.String("kind", string(params.Kind)),
			requestField(ctx),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, appErrors.ErrUploadFailed.Message)
	}

	item := &models.MediaSubmission{
		UserID:       params.UserID,
		Topic:        topic,
		ActivityNo:   params.ActivityNo,
		ActivityType: params.Kind,
		FileURL:      result.URL,
	}
	if params.Kind == models.MediaKindVideo {
		if result.PosterURL != "" {
			poster := result.PosterURL
			item.PosterImage = &poster
		} else {
			// The schema wants a poster for every video; the host did not
			// derive one. The invariant is relaxed here and the condition
			// made visible instead of failing the whole submission.
			s.metrics.RecordPosterMissing()
			s.logger.Warn("video accepted without poster thumbnail",
				zap.String("user_id", params.UserID),
				zap.String("topic", string(topic)),
				zap.Int("activity_no", params.ActivityNo),
				requestField(ctx))
		}
	}

	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, duplicateError(params.Kind)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist submission")
	}

	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, listingPattern(topic))
	}

	return item, nil
}

// CheckStatus reports per-kind submission existence for a tuple.
func (s *SubmissionService) CheckStatus(ctx context.Context, userID, rawTopic string, activityNo int) (*dto.SubmissionStatusResponse, error) {
	if err := s.validateParams(userID, rawTopic, activityNo); err != nil {
		return nil, err
	}
	topic, err := models.ParseTopic(rawTopic)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTopic,
			fmt.Sprintf("invalid topic %q, valid topics: %s", rawTopic, models.TopicNames()))
	}

	key := models.SubmissionKey{UserID: userID, Topic: topic, ActivityNo: activityNo}

	key.ActivityType = models.MediaKindPhoto
	photo, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check photo submission")
	}

	key.ActivityType = models.MediaKindVideo
	video, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check video submission")
	}

	return &dto.SubmissionStatusResponse{
		Submitted: photo || video,
		Details: dto.SubmissionStatusDetails{
			PhotoSubmitted: photo,
			VideoSubmitted: video,
		},
	}, nil
}

// ListVideosByTopic returns the video projection for a topic, read through
// the listing cache when enabled.
func (s *SubmissionService) ListVideosByTopic(ctx context.Context, rawTopic string) ([]models.VideoListItem, error) {
	topic, err := models.ParseTopic(rawTopic)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTopic,
			fmt.Sprintf("invalid topic %q, valid topics: %s", rawTopic, models.TopicNames()))
	}

	cacheKey := listingKey(topic, models.MediaKindVideo)
	var cached []models.VideoListItem
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	items, err := s.repo.ListVideosByTopic(ctx, topic)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	_ = s.cache.Set(ctx, cacheKey, items, s.cfg.ListingCacheTTL)
	return items, nil
}

// ListPhotosByTopic returns the photo projection for a topic.
func (s *SubmissionService) ListPhotosByTopic(ctx context.Context, rawTopic string) ([]models.PhotoListItem, error) {
	topic, err := models.ParseTopic(rawTopic)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTopic,
			fmt.Sprintf("invalid topic %q, valid topics: %s", rawTopic, models.TopicNames()))
	}

	cacheKey := listingKey(topic, models.MediaKindPhoto)
	var cached []models.PhotoListItem
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	items, err := s.repo.ListPhotosByTopic(ctx, topic)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list photos")
	}
	_ = s.cache.Set(ctx, cacheKey, items, s.cfg.ListingCacheTTL)
	return items, nil
}

func (s *SubmissionService) upload(ctx context.Context, params SubmitParams) (*mediahost.UploadResult, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	kind := mediahost.KindImage
	if params.Kind == models.MediaKindVideo {
		kind = mediahost.KindVideo
	}

	start := time.Now()
	result, err := s.uploader.Upload(uploadCtx, mediahost.UploadInput{
		Path: params.File.Path,
		Kind: kind,
	})
	s.metrics.ObserveUpload(string(params.Kind), err == nil, time.Since(start))
	return result, err
}

func (s *SubmissionService) cleanupScratch(path string) {
	if s.scratch == nil {
		return
	}
	if err := s.scratch.Remove(path); err != nil {
		s.metrics.RecordCleanupFailure()
		s.logger.Warn("scratch file cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

type requiredParams struct {
	UserID     string `validate:"required"`
	Topic      string `validate:"required"`
	ActivityNo int    `validate:"required,gt=0"`
}

var paramNames = map[string]string{
	"UserID":     "userId",
	"Topic":      "topic",
	"ActivityNo": "activityNo",
}

func (s *SubmissionService) validateParams(userID, topic string, activityNo int) error {
	params := requiredParams{
		UserID:     strings.TrimSpace(userID),
		Topic:      strings.TrimSpace(topic),
		ActivityNo: activityNo,
	}
	err := s.validator.Struct(params)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid parameters")
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if name, ok := paramNames[fe.StructField()]; ok {
			missing = append(missing, name)
		}
	}
	return appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("missing required parameters (%s)", strings.Join(missing, ", ")))
}

func requestField(ctx context.Context) zap.Field {
	if id := requestid.FromContext(ctx); id != "" {
		return zap.String("request_id", id)
	}
	return zap.Skip()
}

func duplicateError(kind models.MediaKind) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrAlreadySubmitted,
		fmt.Sprintf("%s for this activity number and topic already exists", kindNoun(kind)))
}

func kindNoun(kind models.MediaKind) string {
	if kind == models.MediaKindVideo {
		return "video"
	}
	return "image"
}

func allowedExtensions(kind models.MediaKind) string {
	mimes := kind.AllowedMIMEs()
	exts := make([]string, 0, len(mimes))
	for _, m := range mimes {
		if idx := strings.IndexByte(m, '/'); idx >= 0 {
			exts = append(exts, m[idx+1:])
		}
	}
	return strings.Join(exts, ", ")
}

func listingKey(topic models.Topic, kind models.MediaKind) string {
	return fmt.Sprintf("listing:%s:%s", kind, topic)
}

func listingPattern(topic models.Topic) string {
	return fmt.Sprintf("listing:*:%s", topic)
}
