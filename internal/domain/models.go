package domain

import "strings"

// Job represents a construction job site.
// NameFolded is FoldName(Name), written by the store so name search does not
// depend on the database's own LOWER.
type Job struct {
	ID         int            `gorm:"primaryKey;autoIncrement"`
	Name       string         `gorm:"type:varchar(256);not null;default:''"`
	NameFolded string         `gorm:"type:varchar(256);not null;default:''" json:"-"`
	Latitude   float64        `gorm:"not null"`
	Longitude  float64        `gorm:"not null"`
	Photos     []JobSitePhoto `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

// FoldName is the case folding used by name search
func FoldName(name string) string {
	return strings.ToLower(name)
}

// TableName keeps the table name stable across dialects
func (Job) TableName() string {
	return "jobs"
}

// JobSitePhoto is a geotagged photo taken at a job site.
// StorageKey is the object store key; it is empty for metadata-only photos.
type JobSitePhoto struct {
	ID             int     `gorm:"primaryKey;autoIncrement"`
	JobID          int     `gorm:"not null;index"`
	PhotoUploadURL string  `gorm:"column:photo_upload_url;type:varchar(2048);not null;default:''"`
	StorageKey     string  `gorm:"type:varchar(1024);not null;default:''"`
	Latitude       float64 `gorm:"not null"`
	Longitude      float64 `gorm:"not null"`
	Heading        int     `gorm:"not null"`
}

func (JobSitePhoto) TableName() string {
	return "job_site_photos"
}
