package service_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/contoso/jobsite-api/internal/events"
	"github.com/contoso/jobsite-api/internal/repository"
	"github.com/contoso/jobsite-api/internal/storage"
)

// fakeStorage records uploads and deletes in memory
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, filename, contentType string, data io.Reader) (storage.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	if s.uploadErr != nil {
		return storage.StoredObject{}, s.uploadErr
	}

	body, err := io.ReadAll(data)
	if err != nil {
		return storage.StoredObject{}, err
	}

	key := storage.ObjectKey(filename)
	s.objects[key] = body
	return storage.StoredObject{Key: key, URL: "https://blob.example/uploads/" + key, Size: int64(len(body))}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

// failingPhotoStore fails every photo insert
type failingPhotoStore struct {
	*repository.MemoryJobRepository
	err error
}

func (s *failingPhotoStore) CreatePhoto(context.Context, *domain.JobSitePhoto) error {
	return s.err
}

// pausingStore holds its first GetByID after the load until resume is closed
type pausingStore struct {
	*repository.MemoryJobRepository
	once   sync.Once
	loaded chan struct{}
	resume chan struct{}
}

func (s *pausingStore) GetByID(ctx context.Context, id int) (*domain.Job, error) {
	job, err := s.MemoryJobRepository.GetByID(ctx, id)
	s.once.Do(func() {
		close(s.loaded)
		<-s.resume
	})
	return job, err
}

var errStoreDown = errors.New("store unavailable")

// recordingPublisher keeps published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}
