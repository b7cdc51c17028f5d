package repository_test

import (
	"context"
	"testing"

	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/repository"
	"github.com/contoso/jobsite-api/internal/service"
	"github.com/contoso/jobsite-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forEachStore runs fn against the SQL store and the in-memory store
func forEachStore(t *testing.T, fn func(t *testing.T, store service.JobStore)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, repository.NewJobRepository(testutil.SetupTestDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, repository.NewMemoryJobRepository())
	})
}

func createJob(t *testing.T, store service.JobStore, name string, lat, lng float64) *domain.Job {
	t.Helper()
	job := &domain.Job{Name: name, Latitude: lat, Longitude: lng}
	require.NoError(t, store.Create(context.Background(), job))
	return job
}

func createPhoto(t *testing.T, store service.JobStore, jobID int, url string) *domain.JobSitePhoto {
	t.Helper()
	photo := &domain.JobSitePhoto{JobID: jobID, PhotoUploadURL: url, Latitude: 1.5, Longitude: -2.5, Heading: 270}
	require.NoError(t, store.CreatePhoto(context.Background(), photo))
	return photo
}

func jobIDs(jobs []domain.Job) []int {
	ids := make([]int, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}

func TestJobStore_CreateAssignsIncreasingIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		first := createJob(t, store, "First", 1, 1)
		second := createJob(t, store, "Second", 2, 2)

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
	})
}

func TestJobStore_GetByID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		ctx := context.Background()
		job := createJob(t, store, "Test Job", 53.30519, -139.99564)
		p1 := createPhoto(t, store, job.ID, "https://example.com/a.jpg")
		p2 := createPhoto(t, store, job.ID, "https://example.com/b.jpg")

		got, err := store.GetByID(ctx, job.ID)
		require.NoError(t, err)

		assert.Equal(t, "Test Job", got.Name)
		assert.Equal(t, "test job", got.NameFolded)
		assert.Equal(t, 53.30519, got.Latitude)
		assert.Equal(t, -139.99564, got.Longitude)
		require.Len(t, got.Photos, 2)
		assert.Equal(t, p1.ID, got.Photos[0].ID)
		assert.Equal(t, p2.ID, got.Photos[1].ID)
		assert.Equal(t, 270, got.Photos[0].Heading)
	})
}

func TestJobStore_GetByID_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		_, err := store.GetByID(context.Background(), 9999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestJobStore_Exists(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		ctx := context.Background()
		job := createJob(t, store, "Exists", 0, 0)

		ok, err := store.Exists(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, job.ID+100)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestJobStore_ListIsOrderedAndNonNil(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		ctx := context.Background()

		jobs, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, jobs)
		assert.Empty(t, jobs)

		a := createJob(t, store, "A", 0, 0)
		b := createJob(t, store, "B", 0, 0)

		jobs, err = store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{a.ID, b.ID}, jobIDs(jobs))
	})
}

func TestJobStore_SearchByName(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		bridge := createJob(t, store, "North Bridge Repair", 0, 0)
		tower := createJob(t, store, "Tower Crane", 0, 0)
		percent := createJob(t, store, "100% Complete", 0, 0)
		under := createJob(t, store, "site_a", 0, 0)
		createJob(t, store, "siteXa", 0, 0)
		school := createJob(t, store, "ÉCOLE Nord", 0, 0)
		tunnel := createJob(t, store, "øresund tunnel", 0, 0)

		tests := []struct {
			name   string
			search string
			want   []int
		}{
			{name: "substring", search: "bridge", want: []int{bridge.ID}},
			{name: "case insensitive", search: "TOWER", want: []int{tower.ID}},
			{name: "no match", search: "harbour", want: []int{}},
			{name: "percent is literal", search: "%", want: []int{percent.ID}},
			{name: "underscore is literal", search: "_", want: []int{under.ID}},
			{name: "non-ASCII upper name, lower search", search: "école", want: []int{school.ID}},
			{name: "non-ASCII lower name, upper search", search: "ØRESUND", want: []int{tunnel.ID}},
			{name: "non-ASCII exact case", search: "ÉCOLE", want: []int{school.ID}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				jobs, err := store.SearchByName(context.Background(), tt.search)
				require.NoError(t, err)
				assert.Equal(t, tt.want, jobIDs(jobs))
			})
		}
	})
}

func TestJobStore_SearchByName_EmptyMatchesAll(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		createJob(t, store, "One", 0, 0)
		createJob(t, store, "", 0, 0)

		jobs, err := store.SearchByName(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}

func TestJobStore_SearchByBoundingBox(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		center := createJob(t, store, "Center", 10, 20)
		edge := createJob(t, store, "Edge", 11, 19)
		createJob(t, store, "Outside", 11.5, 20)

		box := domain.BoxAround(domain.Coordinate{Latitude: 10, Longitude: 20}, 1)
		jobs, err := store.SearchByBoundingBox(context.Background(), box)
		require.NoError(t, err)

		assert.Equal(t, []int{center.ID, edge.ID}, jobIDs(jobs))
	})
}

func TestJobStore_SearchByBoundingBox_DecimalEdges(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		north := createJob(t, store, "North", 8.68143, 0.5)
		south := createJob(t, store, "South", 6.68143, 0.5)
		west := createJob(t, store, "West", 7.68143, -0.7)
		createJob(t, store, "Beyond", 8.68153, 0.5)

		box := domain.BoxAround(domain.Coordinate{Latitude: 7.68143, Longitude: 0.3}, domain.SearchRadiusDegrees)
		jobs, err := store.SearchByBoundingBox(context.Background(), box)
		require.NoError(t, err)

		assert.Equal(t, []int{north.ID, south.ID, west.ID}, jobIDs(jobs))
	})
}

func TestJobStore_DeleteCascadesPhotos(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		ctx := context.Background()
		job := createJob(t, store, "Doomed", 0, 0)
		other := createJob(t, store, "Kept", 0, 0)
		p1 := createPhoto(t, store, job.ID, "https://example.com/1.jpg")
		p2 := createPhoto(t, store, job.ID, "https://example.com/2.jpg")
		kept := createPhoto(t, store, other.ID, "https://example.com/3.jpg")

		removed, err := store.Delete(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, removed, 2)
		assert.Equal(t, p1.ID, removed[0].ID)
		assert.Equal(t, p2.ID, removed[1].ID)

		_, err = store.GetByID(ctx, job.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		photos, err := store.ListPhotos(ctx, job.ID)
		require.NoError(t, err)
		assert.Empty(t, photos)

		photos, err = store.ListPhotos(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, kept.ID, photos[0].ID)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, repository.Stats{Jobs: 1, Photos: 1}, stats)
	})
}

func TestJobStore_Delete_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		_, err := store.Delete(context.Background(), 12345)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestJobStore_IDsAreNotReusedAfterDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		first := createJob(t, store, "First", 0, 0)
		_, err := store.Delete(context.Background(), first.ID)
		require.NoError(t, err)

		second := createJob(t, store, "Second", 0, 0)
		assert.Greater(t, second.ID, first.ID)
	})
}

func TestJobStore_CreatePhoto_MissingJob(t *testing.T) {
	forEachStore(t, func(t *testing.T, store service.JobStore) {
		ctx := context.Background()
		photo := &domain.JobSitePhoto{JobID: 4242, Heading: 10}

		err := store.CreatePhoto(ctx, photo)
		assert.ErrorIs(t, err, repository.ErrForeignKeyViolation)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Photos)
	})
}
