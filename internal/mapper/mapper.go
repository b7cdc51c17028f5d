package mapper

import (
	"github.com/contoso/jobsite-api/internal/domain"
)

// ToJobDTO converts Job to JobDTO. Photos are included when loaded.
func ToJobDTO(job *domain.Job) domain.JobDTO {
	dto := domain.JobDTO{
		ID:        job.ID,
		Latitude:  job.Latitude,
		Longitude: job.Longitude,
		Name:      job.Name,
	}

	if len(job.Photos) > 0 {
		dto.Photos = ToJobSitePhotoDTOs(job.Photos)
	}

	return dto
}

// ToJobDTOs converts a slice of jobs, always returning a non-nil slice
func ToJobDTOs(jobs []domain.Job) []domain.JobDTO {
	dtos := make([]domain.JobDTO, len(jobs))
	for i := range jobs {
		dtos[i] = ToJobDTO(&jobs[i])
	}
	return dtos
}

// ToJobSitePhotoDTO converts JobSitePhoto to JobSitePhotoDTO
func ToJobSitePhotoDTO(photo *domain.JobSitePhoto) domain.JobSitePhotoDTO {
	return domain.JobSitePhotoDTO{
		ID:             photo.ID,
		JobID:          photo.JobID,
		PhotoUploadURL: photo.PhotoUploadURL,
		Latitude:       photo.Latitude,
		Longitude:      photo.Longitude,
		Heading:        photo.Heading,
	}
}

func ToJobSitePhotoDTOs(photos []domain.JobSitePhoto) []domain.JobSitePhotoDTO {
	dtos := make([]domain.JobSitePhotoDTO, len(photos))
	for i := range photos {
		dtos[i] = ToJobSitePhotoDTO(&photos[i])
	}
	return dtos
}
