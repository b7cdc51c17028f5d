package repository

import (
	"context"
	"errors"

	"github.com/contoso/jobsite-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository is the SQL job store. Photos are only written through CreatePhoto.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts the job row only; the store assigns the id
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	job.NameFolded = domain.FoldName(job.Name)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(job).Error
}

// GetByID returns the job with its photos ordered by id
func (r *JobRepository) GetByID(ctx context.Context, id int) (*domain.Job, error) {
	var job domain.Job
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *JobRepository) List(ctx context.Context) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.db.WithContext(ctx).Order("id ASC").Find(&jobs).Error
	return jobs, err
}

// SearchByName matches jobs whose name contains search, ignoring case
func (r *JobRepository) SearchByName(ctx context.Context, search string) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.db.WithContext(ctx).
		Where(`name_folded LIKE ? ESCAPE '\'`, containsPattern(search)).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// SearchByBoundingBox returns jobs inside the box, edges included
func (r *JobRepository) SearchByBoundingBox(ctx context.Context, box domain.BoundingBox) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ?", box.MinLatitude, box.MaxLatitude).
		Where("longitude BETWEEN ? AND ?", box.MinLongitude, box.MaxLongitude).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// Delete removes a job and its photos in one transaction and returns the removed photos
func (r *JobRepository) Delete(ctx context.Context, id int) ([]domain.JobSitePhoto, error) {
	var photos []domain.JobSitePhoto

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Order("id ASC").Find(&photos).Error; err != nil {
			return err
		}

		if err := tx.Where("job_id = ?", id).Delete(&domain.JobSitePhoto{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.Job{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return photos, nil
}

// CreatePhoto inserts a photo row; a missing job surfaces as ErrForeignKeyViolation
func (r *JobRepository) CreatePhoto(ctx context.Context, photo *domain.JobSitePhoto) error {
	err := r.db.WithContext(ctx).Create(photo).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrForeignKeyViolation
	}
	return err
}

// ListPhotos returns all photos attached to a job
func (r *JobRepository) ListPhotos(ctx context.Context, jobID int) ([]domain.JobSitePhoto, error) {
	photos := []domain.JobSitePhoto{}
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("id ASC").
		Find(&photos).Error
	return photos, err
}

func (r *JobRepository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := r.db.WithContext(ctx).Model(&domain.Job{}).Count(&stats.Jobs).Error; err != nil {
		return Stats{}, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.JobSitePhoto{}).Count(&stats.Photos).Error; err != nil {
		return Stats{}, err
	}
	return stats, nil
}
