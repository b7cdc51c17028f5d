package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/contoso/jobsite-api/internal/cache"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/events"
	"github.com/contoso/jobsite-api/internal/mapper"
	"github.com/contoso/jobsite-api/internal/report"
	"github.com/contoso/jobsite-api/internal/repository"
	"github.com/contoso/jobsite-api/internal/storage"
	"go.uber.org/zap"
)

// JobStore is the persistence contract shared by the SQL and in-memory repositories
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id int) (*domain.Job, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context) ([]domain.Job, error)
	SearchByName(ctx context.Context, search string) ([]domain.Job, error)
	SearchByBoundingBox(ctx context.Context, box domain.BoundingBox) ([]domain.Job, error)
	Delete(ctx context.Context, id int) ([]domain.JobSitePhoto, error)
	CreatePhoto(ctx context.Context, photo *domain.JobSitePhoto) error
	ListPhotos(ctx context.Context, jobID int) ([]domain.JobSitePhoto, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

// JobService handles job business logic
type JobService struct {
	store     JobStore
	storage   storage.Storage
	cache     cache.JobCache
	publisher events.Publisher
	logger    *zap.Logger
}

// NewJobService creates a new JobService. Nil cache and publisher fall back to no-ops.
func NewJobService(store JobStore, storage storage.Storage, jobCache cache.JobCache, publisher events.Publisher, logger *zap.Logger) *JobService {
	if jobCache == nil {
		jobCache = cache.NopJobCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &JobService{
		store:     store,
		storage:   storage,
		cache:     jobCache,
		publisher: publisher,
		logger:    logger,
	}
}

// Create persists a new job; the store assigns the id
func (s *JobService) Create(ctx context.Context, req *domain.CreateJobRequest) (*domain.JobDTO, error) {
	job := &domain.Job{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created", zap.Int("job_id", job.ID), zap.String("name", job.Name))
	s.publish(ctx, events.Event{Type: events.JobCreated, JobID: job.ID})

	dto := mapper.ToJobDTO(job)
	return &dto, nil
}

// GetByID returns a job with its photos
func (s *JobService) GetByID(ctx context.Context, id int) (*domain.JobDTO, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToJobDTO(job)
	return &dto, nil
}

func (s *JobService) getJob(ctx context.Context, id int) (*domain.Job, error) {
	if job, ok := s.cache.Get(ctx, id); ok {
		return job, nil
	}

	generation, genErr := s.cache.Generation(ctx, id)

	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if genErr != nil {
		s.logger.Warn("Failed to read cache generation", zap.Int("job_id", id), zap.Error(genErr))
		return job, nil
	}
	if err := s.cache.Set(ctx, job, generation); err != nil {
		s.logger.Warn("Failed to cache job", zap.Int("job_id", id), zap.Error(err))
	}

	return job, nil
}

// List returns all jobs in insertion order
func (s *JobService) List(ctx context.Context) ([]domain.JobDTO, error) {
	jobs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return mapper.ToJobDTOs(jobs), nil
}

// SearchByName returns jobs whose name contains query, ignoring case.
// An empty query matches every job.
func (s *JobService) SearchByName(ctx context.Context, query string) ([]domain.JobDTO, error) {
	jobs, err := s.store.SearchByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs by name: %w", err)
	}
	return mapper.ToJobDTOs(jobs), nil
}

// SearchByLocation returns jobs within one degree of center on both axes, edges included
func (s *JobService) SearchByLocation(ctx context.Context, center domain.Coordinate) ([]domain.JobDTO, error) {
	box := domain.BoxAround(center, domain.SearchRadiusDegrees)

	jobs, err := s.store.SearchByBoundingBox(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs by location: %w", err)
	}
	return mapper.ToJobDTOs(jobs), nil
}

// Delete removes a job and its photo rows, then deletes the photo blobs best effort
func (s *JobService) Delete(ctx context.Context, id int) error {
	photos, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate cached job", zap.Int("job_id", id), zap.Error(err))
	}

	for _, photo := range photos {
		if photo.StorageKey == "" {
			continue
		}
		if err := s.storage.Delete(ctx, photo.StorageKey); err != nil {
			s.logger.Warn("failed to delete photo blob after job delete",
				zap.Error(err),
				zap.Int("job_id", id),
				zap.String("storageKey", photo.StorageKey),
			)
		}
	}

	s.logger.Info("Job deleted", zap.Int("job_id", id), zap.Int("photos", len(photos)))
	s.publish(ctx, events.Event{Type: events.JobDeleted, JobID: id})
	return nil
}

// ListPhotos returns the photos of a job
func (s *JobService) ListPhotos(ctx context.Context, jobID int) ([]domain.JobSitePhotoDTO, error) {
	if err := s.ensureJobExists(ctx, jobID); err != nil {
		return nil, err
	}

	photos, err := s.store.ListPhotos(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return mapper.ToJobSitePhotoDTOs(photos), nil
}

// WriteReport renders the PDF site report for a job
func (s *JobService) WriteReport(ctx context.Context, id int, w io.Writer) error {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return err
	}

	cfg := report.DefaultConfig()
	cfg.GeneratedAt = time.Now().UTC()
	if err := report.WriteJobReport(w, job, cfg); err != nil {
		return fmt.Errorf("failed to render report for job %d: %w", id, err)
	}
	return nil
}

// Stats returns row counts for the store
func (s *JobService) Stats(ctx context.Context) (repository.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return repository.Stats{}, fmt.Errorf("failed to get store stats: %w", err)
	}
	return stats, nil
}

func (s *JobService) ensureJobExists(ctx context.Context, jobID int) error {
	exists, err := s.store.Exists(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return ErrJobNotFound
	}
	return nil
}

func (s *JobService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.Int("job_id", event.JobID),
			zap.Error(err),
		)
	}
}
