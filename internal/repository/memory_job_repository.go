package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/contoso/jobsite-api/internal/domain"
)

// MemoryJobRepository keeps jobs and photos in process memory.
// It enforces the same referential rules as the SQL schema.
type MemoryJobRepository struct {
	mu          sync.RWMutex
	jobs        map[int]domain.Job
	photos      map[int]domain.JobSitePhoto
	nextJobID   int
	nextPhotoID int
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{
		jobs:        make(map[int]domain.Job),
		photos:      make(map[int]domain.JobSitePhoto),
		nextJobID:   1,
		nextPhotoID: 1,
	}
}

func (r *MemoryJobRepository) Create(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job.ID = r.nextJobID
	job.NameFolded = domain.FoldName(job.Name)
	r.nextJobID++

	stored := *job
	stored.Photos = nil
	r.jobs[job.ID] = stored
	return nil
}

func (r *MemoryJobRepository) GetByID(ctx context.Context, id int) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	job.Photos = r.photosFor(id)
	return &job, nil
}

func (r *MemoryJobRepository) Exists(ctx context.Context, id int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.jobs[id]
	return ok, nil
}

func (r *MemoryJobRepository) List(ctx context.Context) ([]domain.Job, error) {
	return r.filter(func(domain.Job) bool { return true }), nil
}

func (r *MemoryJobRepository) SearchByName(ctx context.Context, search string) ([]domain.Job, error) {
	needle := domain.FoldName(search)
	return r.filter(func(j domain.Job) bool {
		return strings.Contains(j.NameFolded, needle)
	}), nil
}

func (r *MemoryJobRepository) SearchByBoundingBox(ctx context.Context, box domain.BoundingBox) ([]domain.Job, error) {
	return r.filter(func(j domain.Job) bool {
		return box.Contains(j.Latitude, j.Longitude)
	}), nil
}

func (r *MemoryJobRepository) Delete(ctx context.Context, id int) ([]domain.JobSitePhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return nil, ErrNotFound
	}

	removed := r.photosFor(id)
	for _, p := range removed {
		delete(r.photos, p.ID)
	}
	delete(r.jobs, id)

	return removed, nil
}

func (r *MemoryJobRepository) CreatePhoto(ctx context.Context, photo *domain.JobSitePhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[photo.JobID]; !ok {
		return ErrForeignKeyViolation
	}

	photo.ID = r.nextPhotoID
	r.nextPhotoID++
	r.photos[photo.ID] = *photo
	return nil
}

func (r *MemoryJobRepository) ListPhotos(ctx context.Context, jobID int) ([]domain.JobSitePhoto, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	photos := r.photosFor(jobID)
	if photos == nil {
		photos = []domain.JobSitePhoto{}
	}
	return photos, nil
}

func (r *MemoryJobRepository) Stats(ctx context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{Jobs: int64(len(r.jobs)), Photos: int64(len(r.photos))}, nil
}

func (r *MemoryJobRepository) filter(match func(domain.Job) bool) []domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := []domain.Job{}
	for _, j := range r.jobs {
		if match(j) {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })
	return jobs
}

// photosFor must be called with r.mu held
func (r *MemoryJobRepository) photosFor(jobID int) []domain.JobSitePhoto {
	var photos []domain.JobSitePhoto
	for _, p := range r.photos {
		if p.JobID == jobID {
			photos = append(photos, p)
		}
	}
	sort.Slice(photos, func(a, b int) bool { return photos[a].ID < photos[b].ID })
	return photos
}
