package domain

// JobDTO is the API representation of a job.
// Field order is part of the wire contract: id, latitude, longitude, name, photos.
type JobDTO struct {
	ID        int               `json:"id"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Name      string            `json:"name"`
	Photos    []JobSitePhotoDTO `json:"photos,omitempty"`
}

// JobSitePhotoDTO is the API representation of a job site photo
type JobSitePhotoDTO struct {
	ID             int     `json:"id"`
	JobID          int     `json:"jobId"`
	PhotoUploadURL string  `json:"photoUploadUrl"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Heading        int     `json:"heading"`
}

// CreateJobRequest is the body of POST /jobs.
// Coordinates are deliberately not range checked.
type CreateJobRequest struct {
	Name      string  `json:"name" validate:"max=256"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateJobSitePhotoRequest records photo metadata without uploading a binary
type CreateJobSitePhotoRequest struct {
	PhotoUploadURL string  `json:"photoUploadUrl,omitempty" validate:"omitempty,url,max=2048"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Heading        int     `json:"heading"`
}

// PhotoUpload carries the geotag of an uploaded photo binary
type PhotoUpload struct {
	JobID     int
	Latitude  float64
	Longitude float64
	Heading   int
	FileName  string
}
