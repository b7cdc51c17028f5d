package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/contoso/jobsite-api/internal/cache"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/events"
	"github.com/contoso/jobsite-api/internal/logger"
	"github.com/contoso/jobsite-api/internal/mapper"
	"github.com/contoso/jobsite-api/internal/repository"
	"github.com/contoso/jobsite-api/internal/storage"
	"go.uber.org/zap"
)

// PhotoService ingests job site photos: binary to the object store, metadata to the job store
type PhotoService struct {
	store     JobStore
	storage   storage.Storage
	cache     cache.JobCache
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPhotoService creates a new PhotoService. Nil cache and publisher fall back to no-ops.
func NewPhotoService(store JobStore, storage storage.Storage, jobCache cache.JobCache, publisher events.Publisher, logger *zap.Logger) *PhotoService {
	if jobCache == nil {
		jobCache = cache.NopJobCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PhotoService{
		store:     store,
		storage:   storage,
		cache:     jobCache,
		publisher: publisher,
		logger:    logger,
	}
}

// Upload streams data to the object store and records the photo against the job.
// The job is checked first so a missing job never leaves a blob behind. If the
// metadata write fails the blob is removed best effort.
func (s *PhotoService) Upload(ctx context.Context, upload *domain.PhotoUpload, contentType string, data io.Reader) (*domain.JobSitePhotoDTO, error) {
	if upload.FileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	exists, err := s.store.Exists(ctx, upload.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return nil, ErrJobNotFound
	}

	log := logger.WithJob(s.logger, upload.JobID)

	obj, err := s.storage.Upload(ctx, upload.FileName, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	photo := &domain.JobSitePhoto{
		JobID:          upload.JobID,
		PhotoUploadURL: obj.URL,
		StorageKey:     obj.Key,
		Latitude:       upload.Latitude,
		Longitude:      upload.Longitude,
		Heading:        upload.Heading,
	}

	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		if delErr := s.storage.Delete(ctx, obj.Key); delErr != nil {
			log.Warn("failed to cleanup photo from storage after DB error",
				zap.Error(delErr),
				zap.String("storageKey", obj.Key),
			)
		}
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	log.Info("Photo uploaded",
		zap.Int("photo_id", photo.ID),
		zap.String("storageKey", obj.Key),
		zap.Int64("size", obj.Size),
	)
	s.afterCreate(ctx, photo)

	dto := mapper.ToJobSitePhotoDTO(photo)
	return &dto, nil
}

// CreateMetadata records a photo without uploading a binary
func (s *PhotoService) CreateMetadata(ctx context.Context, jobID int, req *domain.CreateJobSitePhotoRequest) (*domain.JobSitePhotoDTO, error) {
	photo := &domain.JobSitePhoto{
		JobID:          jobID,
		PhotoUploadURL: req.PhotoUploadURL,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Heading:        req.Heading,
	}

	exists, err := s.store.Exists(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return nil, ErrJobNotFound
	}

	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	s.afterCreate(ctx, photo)

	dto := mapper.ToJobSitePhotoDTO(photo)
	return &dto, nil
}

func (s *PhotoService) afterCreate(ctx context.Context, photo *domain.JobSitePhoto) {
	if err := s.cache.Invalidate(ctx, photo.JobID); err != nil {
		s.logger.Warn("Failed to invalidate cached job", zap.Int("job_id", photo.JobID), zap.Error(err))
	}

	event := events.Event{
		Type:    events.PhotoCreated,
		JobID:   photo.JobID,
		PhotoID: photo.ID,
		URL:     photo.PhotoUploadURL,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.Int("job_id", event.JobID),
			zap.Error(err),
		)
	}
}
