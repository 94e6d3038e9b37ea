package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"notesnap/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockNoteRepository ---
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) GetNoteByID(ctx context.Context, noteID string) (*domain.Note, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockNoteRepository) ListTagsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNoteRepository) ListNotesByTag(ctx context.Context, ownerID, tag string) ([]domain.Note, error) {
	args := m.Called(ctx, ownerID, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Note), args.Error(1)
}

func (m *MockNoteRepository) UpdateNote(ctx context.Context, ownerID, noteID string, upd domain.NoteUpdate, updatedAt time.Time) error {
	args := m.Called(ctx, ownerID, noteID, upd, updatedAt)
	return args.Error(0)
}

func (m *MockNoteRepository) UpdateGeneratedText(ctx context.Context, ownerID, noteID, text string, updatedAt time.Time) error {
	args := m.Called(ctx, ownerID, noteID, text, updatedAt)
	return args.Error(0)
}

func (m *MockNoteRepository) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	args := m.Called(ctx, ownerID, noteID)
	return args.Error(0)
}

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- memNoteRepository ---

// memNoteRepository keeps notes in a map and applies column-scoped writes the
// way the SQL repository does.
type memNoteRepository struct {
	mu    sync.Mutex
	notes map[string]domain.Note
}

func newMemNoteRepository(seed ...*domain.Note) *memNoteRepository {
	r := &memNoteRepository{notes: make(map[string]domain.Note)}
	for _, n := range seed {
		r.notes[n.ID] = *n
	}
	return r
}

func (r *memNoteRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = *note
	return nil
}

func (r *memNoteRepository) GetNoteByID(ctx context.Context, noteID string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *memNoteRepository) ListTagsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (r *memNoteRepository) ListNotesByTag(ctx context.Context, ownerID, tag string) ([]domain.Note, error) {
	return nil, errors.New("not implemented")
}

func (r *memNoteRepository) UpdateNote(ctx context.Context, ownerID, noteID string, upd domain.NoteUpdate, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return domain.NewNoteNotFoundError(noteID)
	}
	upd.Apply(&n)
	n.UpdatedAt = updatedAt
	r.notes[noteID] = n
	return nil
}

func (r *memNoteRepository) UpdateGeneratedText(ctx context.Context, ownerID, noteID, text string, updatedAt time.Time) error {
	return r.UpdateNote(ctx, ownerID, noteID, domain.NoteUpdate{GeneratedText: &text}, updatedAt)
}

func (r *memNoteRepository) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, noteID)
	return nil
}

// --- scriptedGenerator ---

// scriptedGenerator answers per model and records the call order.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []string
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, model)
	g.prompts = append(g.prompts, prompt)
	if err, ok := g.errs[model]; ok {
		return "", err
	}
	if reply, ok := g.replies[model]; ok {
		return reply, nil
	}
	return "", errors.New("model not found")
}

// --- fakeRecognizer ---
type fakeRecognizer struct {
	text  string
	err   error
	input []byte
}

func (r *fakeRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	r.input = image
	return r.text, r.err
}

// --- memImageStore ---
type memImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	saved   int
	deleted []string
	saveErr error
}

func newMemImageStore() *memImageStore {
	return &memImageStore{objects: map[string][]byte{}}
}

func (s *memImageStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved++
	key := name
	s.objects[key] = data
	return key, nil
}

func (s *memImageStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memImageStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}
