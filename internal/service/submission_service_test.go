package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/activity-media-api/internal/mediahost"
	"github.com/noah-isme/activity-media-api/internal/models"
	"github.com/noah-isme/activity-media-api/internal/repository"
	appErrors "github.com/noah-isme/activity-media-api/pkg/errors"
)

type submissionStoreStub struct {
	items     map[models.SubmissionKey]*models.MediaSubmission
	createErr error
	videos    []models.VideoListItem
	photos    []models.PhotoListItem
	listCalls int
}

func newSubmissionStoreStub() *submissionStoreStub {
	return &submissionStoreStub{items: make(map[models.SubmissionKey]*models.MediaSubmission)}
}

func (s *submissionStoreStub) Create(ctx context.Context, item *models.MediaSubmission) error {
	if s.createErr != nil {
		return s.createErr
	}
	key := item.Key()
	if _, ok := s.items[key]; ok {
		return repository.ErrDuplicateSubmission
	}
	s.items[key] = item
	return nil
}

func (s *submissionStoreStub) Exists(ctx context.Context, key models.SubmissionKey) (bool, error) {
	_, ok := s.items[key]
	return ok, nil
}

func (s *submissionStoreStub) ListVideosByTopic(ctx context.Context, topic models.Topic) ([]models.VideoListItem, error) {
	s.listCalls++
	return s.videos, nil
}

func (s *submissionStoreStub) ListPhotosByTopic(ctx context.Context, topic models.Topic) ([]models.PhotoListItem, error) {
	s.listCalls++
	return s.photos, nil
}

type scratchStub struct {
	removed   []string
	removeErr error
}

func (s *scratchStub) Remove(path string) error {
	s.removed = append(s.removed, path)
	return s.removeErr
}

type uploaderStub struct {
	calls  int
	result *mediahost.UploadResult
	err    error
	input  mediahost.UploadInput
}

func (u *uploaderStub) Upload(ctx context.Context, input mediahost.UploadInput) (*mediahost.UploadResult, error) {
	u.calls++
	u.input = input
	if u.err != nil {
		return nil, u.err
	}
	return u.result, nil
}

type cacheRepoStub struct {
	values   map[string][]byte
	getCalls int
	setCalls int
	patterns []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.getCalls++
	return appErrors.ErrCacheMiss
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.setCalls++
	c.values[key] = nil
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

func newTestSubmissionService(store *submissionStoreStub, scratch *scratchStub, uploader *uploaderStub, cache *CacheService) *SubmissionService {
	return NewSubmissionService(store, scratch, uploader, cache, nil, nil, nil, SubmissionServiceConfig{
		UploadTimeout: time.Second,
	})
}

func photoParams(file *StagedFile) SubmitParams {
	return SubmitParams{
		UserID:     "user-1",
		Topic:      "Tesla",
		ActivityNo: 1,
		Kind:       models.MediaKindPhoto,
		File:       file,
	}
}

func stagedPhoto() *StagedFile {
	return &StagedFile{
		Path:         "/tmp/uploads/123_a.jpg",
		OriginalName: "a.jpg",
		MimeType:     "image/jpeg",
		Size:         2048,
	}
}

func TestSubmissionServiceSubmitPhoto(t *testing.T) {
	store := newSubmissionStoreStub()
	scratch := &scratchStub{}
	uploader := &uploaderStub{result: &mediahost.UploadResult{URL: "https://cdn.example.com/a.jpg"}}
	svc := newTestSubmissionService(store, scratch, uploader, nil)

	item, err := svc.Submit(context.Background(), photoParams(stagedPhoto()))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.jpg", item.FileURL)
	require.Equal(t, models.TopicTesla, item.Topic)
	require.Nil(t, item.PosterImage)
	require.Equal(t, 1, uploader.calls)
	require.Equal(t, mediahost.KindImage, uploader.input.Kind)
	require.Len(t, store.items, 1)
	require.Equal(t, []string{"/tmp/uploads/123_a.jpg"}, scratch.removed)
}

func TestSubmissionServiceSubmitNormalizesTopic(t *testing.T) {
	store := newSubmissionStoreStub()
	uploader := &uploaderStub{result: &mediahost.UploadResult{URL: "https://cdn.example.com/a.jpg"}}
	svc := newTestSubmissionService(store, &scratchStub{}, uploader, nil)

	params := photoParams(stagedPhoto())
	params.Topic = "marie curie"
	item, err := svc.Submit(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, models.TopicMarieCurie, item.Topic)
}

func TestSubmissionServiceSubmitMissingParams(t *testing.T) {
	svc := newTestSubmissionService(newSubmissionStoreStub(), &scratchStub{}, &uploaderStub{}, nil)

	_, err := svc.Submit(context.Background(), SubmitParams{Kind: models.MediaKindPhoto})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Message, "userId")
	require.Contains(t, appErr.Message, "topic")
	require.Contains(t, appErr.Message, "activityNo")
}

func TestSubmissionServiceSubmitInvalidTopic(t *testing.T) {
	uploader := &uploaderStub{}
	svc := newTestSubmissionService(newSubmissionStoreStub(), &scratchStub{}, uploader, nil)

	params := photoParams(stagedPhoto())
	params.Topic = "Newton"
	_, err := svc.Submit(context.Background(), params)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTopic.Code, appErr.Code)
	require.Contains(t, appErr.Message, "Archimedes")
	require.Zero(t, uploader.calls)
}

func TestSubmissionServiceSubmitDuplicatePrecheck(t *testing.T) {
	store := newSubmissionStoreStub()
	store.items[models.SubmissionKey{
		UserID:       "user-1",
		Topic:        models.TopicTesla,
		ActivityNo:   1,
		ActivityType: models.MediaKindPhoto,
	}] = &models.MediaSubmission{}
	scratch := &scratchStub{}
	uploader := &uploaderStub{}
	svc := newTestSubmissionService(store, scratch, uploader, nil)

	_, err := svc.Submit(context.Background(), photoParams(stagedPhoto()))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrAlreadySubmitted.Code, appErr.Code)
	require.Equal(t, 400, appErr.Status)
	require.Zero(t, uploader.calls)
	require.Len(t, scratch.removed, 1)
}

func TestSubmissionServiceSubmitDuplicateRace(t *testing.T) {
	store := newSubmissionStoreStub()
	store.createErr = repository.ErrDuplicateSubmission
	uploader := &uploaderStub{result: &mediahost.UploadResult{URL: "https://cdn.example.com/a.jpg"}}
	svc := newTestSubmissionService(store, &scratchStub{}, uploader, nil)

	_, err := svc.Submit(context.Background(), photoParams(stagedPhoto()))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrAlreadySubmitted.Code, appErr.Code)
	require.Equal(t, 1, uploader.calls)
}

func TestSubmissionServiceSubmitRejectsMime(t *testing.T) {
	uploader := &uploaderStub{}
	scratch := &scratchStub{}
	svc := newTestSubmissionService(newSubmissionStoreStub(), scratch, uploader, nil)

	file := stagedPhoto()
	file.MimeType = "application/pdf"
	_, err := svc.Submit(context.Background(), photoParams(file))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidMediaType.Code, appErr.Code)
	require.Zero(t, uploader.calls)
	require.Len(t, scratch.removed, 1)
}

func TestSubmissionServiceSubmitUploadFailure(t *testing.T) {
	store := newSubmissionStoreStub()
	scratch := &scratchStub{}
	uploader := &uploaderStub{err: errors.New("host unreachable")}
	svc := newTestSubmissionService(store, scratch, uploader, nil)

	_, err := svc.Submit(context.Background(), photoParams(stagedPhoto()))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUploadFailed.Code, appErr.Code)
	require.Equal(t, 500, appErr.Status)
	require.Empty(t, store.items)
	require.Len(t, scratch.removed, 1)
}

func TestSubmissionServiceSubmitVideoWithPoster(t *testing.T) {
	store := newSubmissionStoreStub()
	uploader := &uploaderStub{result: &mediahost.UploadResult{
		URL:       "https://cdn.example.com/v.mp4",
		PosterURL: "https://cdn.example.com/v.jpg",
	}}
	svc := newTestSubmissionService(store, &scratchStub{}, uploader, nil)

	item, err := svc.Submit(context.Background(), SubmitParams{
		UserID:     "user-1",
		Topic:      "Einstein",
		ActivityNo: 2,
		Kind:       models.MediaKindVideo,
		File: &StagedFile{
			Path:         "/tmp/uploads/456_v.mp4",
			OriginalName: "v.mp4",
			MimeType:     "video/mp4",
			Size:         1 << 20,
		},
	})
	require.NoError(t, err)
	require.Equal(t, mediahost.KindVideo, uploader.input.Kind)
	require.NotNil(t, item.PosterImage)
	require.Equal(t, "https://cdn.example.com/v.jpg", *item.PosterImage)
}

func TestSubmissionServiceSubmitVideoWithoutPoster(t *testing.T) {
	store := newSubmissionStoreStub()
	uploader := &uploaderStub{result: &mediahost.UploadResult{URL: "https://cdn.example.com/v.mp4"}}
	metrics := NewMetricsService()
	svc := NewSubmissionService(store, &scratchStub{}, uploader, nil, metrics, nil, nil, SubmissionServiceConfig{
		UploadTimeout: time.Second,
	})

	item, err := svc.Submit(context.Background(), SubmitParams{
		UserID:     "user-1",
		Topic:      "Einstein",
		ActivityNo: 2,
		Kind:       models.MediaKindVideo,
		File: &StagedFile{
			Path:         "/tmp/uploads/456_v.mp4",
			OriginalName: "v.mp4",
			MimeType:     "video/mp4",
			Size:         1 << 20,
		},
	})
	require.NoError(t, err)
	require.Nil(t, item.PosterImage)
	require.Len(t, store.items, 1)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.posterMissing))
}

func TestSubmissionServiceSubmitInvalidatesListingCache(t *testing.T) {
	store := newSubmissionStoreStub()
	cacheRepo := newCacheRepoStub()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	uploader := &uploaderStub{result: &mediahost.UploadResult{URL: "https://cdn.example.com/a.jpg"}}
	svc := newTestSubmissionService(store, &scratchStub{}, uploader, cacheSvc)

	_, err := svc.Submit(context.Background(), photoParams(stagedPhoto()))
	require.NoError(t, err)
	require.Equal(t, []string{"listing:*:Tesla"}, cacheRepo.patterns)
}

func TestSubmissionServiceCheckStatus(t *testing.T) {
	store := newSubmissionStoreStub()
	store.items[models.SubmissionKey{
		UserID:       "user-1",
		Topic:        models.TopicArchimedes,
		ActivityNo:   5,
		ActivityType: models.MediaKindVideo,
	}] = &models.MediaSubmission{}
	svc := newTestSubmissionService(store, &scratchStub{}, &uploaderStub{}, nil)

	status, err := svc.CheckStatus(context.Background(), "user-1", "Archimedes", 5)
	require.NoError(t, err)
	require.True(t, status.Submitted)
	require.False(t, status.Details.PhotoSubmitted)
	require.True(t, status.Details.VideoSubmitted)

	status, err = svc.CheckStatus(context.Background(), "user-1", "Archimedes", 6)
	require.NoError(t, err)
	require.False(t, status.Submitted)
}

func TestSubmissionServiceListVideosCachesResult(t *testing.T) {
	store := newSubmissionStoreStub()
	poster := "https://cdn.example.com/p.jpg"
	store.videos = []models.VideoListItem{{ActivityNo: 1, FileURL: "https://cdn.example.com/v.mp4", PosterImage: &poster}}
	cacheRepo := newCacheRepoStub()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := newTestSubmissionService(store, &scratchStub{}, &uploaderStub{}, cacheSvc)

	items, err := svc.ListVideosByTopic(context.Background(), "Tesla")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, store.listCalls)
	require.Equal(t, 1, cacheRepo.getCalls)
	require.Equal(t, 1, cacheRepo.setCalls)
	require.Contains(t, cacheRepo.values, "listing:video:Tesla")
}

func TestSubmissionServiceListPhotosInvalidTopic(t *testing.T) {
	svc := newTestSubmissionService(newSubmissionStoreStub(), &scratchStub{}, &uploaderStub{}, nil)

	_, err := svc.ListPhotosByTopic(context.Background(), "Galileo")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTopic.Code, appErr.Code)
}
