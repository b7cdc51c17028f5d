// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/contoso/jobsite-api/internal/database"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the
// migrations applied. The database lives until the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and serialized
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, "sqlite", zap.NewNop()))

	return db
}

// CreateTestJob inserts a job row directly
func CreateTestJob(t *testing.T, db *gorm.DB, name string, lat, lng float64) *domain.Job {
	t.Helper()

	job := &domain.Job{Name: name, NameFolded: domain.FoldName(name), Latitude: lat, Longitude: lng}
	require.NoError(t, db.Omit("Photos").Create(job).Error)
	return job
}

// CreateTestPhoto inserts a photo row for jobID directly
func CreateTestPhoto(t *testing.T, db *gorm.DB, jobID int, url string) *domain.JobSitePhoto {
	t.Helper()

	photo := &domain.JobSitePhoto{
		JobID:          jobID,
		PhotoUploadURL: url,
		Latitude:       1,
		Longitude:      2,
		Heading:        90,
	}
	require.NoError(t, db.Create(photo).Error)
	return photo
}
