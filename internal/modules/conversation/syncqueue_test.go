package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
)

type stubStore struct {
	mu       sync.Mutex
	record   *models.ConversationModel
	fetchErr error
	failures int // write attempts left to fail
	attempts int
	creates  int
	updates  []string // record ids passed to Update
	writes   []string // successful payloads, in order

	started chan struct{} // when set, signaled as a write begins
	release chan struct{} // when set, writes block on it
}

func (s *stubStore) Fetch(ctx context.Context, itemType, itemID string) (*models.ConversationModel, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.record, nil
}

func (s *stubStore) write(payload string) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errors.New("store down")
	}
	s.writes = append(s.writes, payload)
	return nil
}

func (s *stubStore) Create(ctx context.Context, itemType, itemID, payload string) (string, error) {
	if err := s.write(payload); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return "rec-1", nil
}

func (s *stubStore) Update(ctx context.Context, recordID, payload string) error {
	if err := s.write(payload); err != nil {
		return err
	}
	s.mu.Lock()
	s.updates = append(s.updates, recordID)
	s.mu.Unlock()
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func waitPayload(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for persist")
		return ""
	}
}

func addOp(id, text string) Operation {
	c := makeComment(id, alice, text)
	return Operation{Type: OpAddComment, Comment: &c}
}

func TestOpenMissingRecordStartsEmpty(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound}
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{})
	require.NoError(t, err)
	defer q.Close()

	assert.Empty(t, q.Comments())
	assert.Equal(t, "", q.RecordID())
	assert.False(t, q.Dirty())
}

func TestOpenLoadsStoredPayload(t *testing.T) {
	payload, err := json.Marshal(seedTree())
	require.NoError(t, err)
	store := &stubStore{record: &models.ConversationModel{
		Base:    models.Base{ID: "rec-9"},
		Payload: string(payload),
	}}

	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{})
	require.NoError(t, err)
	defer q.Close()

	assert.Equal(t, "rec-9", q.RecordID())
	require.Len(t, q.Comments(), 2)
	assert.Equal(t, "c1", q.Comments()[0].ID)
}

func TestFirstPersistCreatesThenUpdates(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound}
	persisted := make(chan string, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		OnPersisted: func(seq int64, payload string) { persisted <- payload },
	})
	require.NoError(t, err)
	defer q.Close()

	res := q.Submit(addOp("c1", "hello"))
	require.Equal(t, StatusApplied, res.Status)
	waitPayload(t, persisted)

	assert.Equal(t, "rec-1", q.RecordID())

	q.Submit(addOp("c2", "again"))
	waitPayload(t, persisted)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, []string{"rec-1"}, store.updates)
}

func TestSnapshotsCoalesceAndStayOrdered(t *testing.T) {
	store := &stubStore{
		fetchErr: gorm.ErrRecordNotFound,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	persisted := make(chan string, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		OnPersisted: func(seq int64, payload string) { persisted <- payload },
	})
	require.NoError(t, err)
	defer q.Close()

	q.Submit(addOp("c1", "one"))
	<-store.started // first snapshot captured, write now blocked

	// these land while the first persist is in flight
	q.Submit(addOp("c2", "two"))
	q.Submit(addOp("c3", "three"))

	store.release <- struct{}{}
	first := waitPayload(t, persisted)

	<-store.started
	store.release <- struct{}{}
	second := waitPayload(t, persisted)

	var firstTree, secondTree []models.Comment
	require.NoError(t, json.Unmarshal([]byte(first), &firstTree))
	require.NoError(t, json.Unmarshal([]byte(second), &secondTree))

	// two writes total: the two queued operations coalesced into one
	// snapshot, and the newer snapshot went out after the older one
	assert.Len(t, firstTree, 1)
	require.Len(t, secondTree, 3)
	assert.Equal(t, "c3", secondTree[0].ID)

	store.mu.Lock()
	writes := len(store.writes)
	store.mu.Unlock()
	assert.Equal(t, 2, writes)
	assert.False(t, q.Dirty())
}

func TestPersistRetriesWithBackoff(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound, failures: 2}
	persisted := make(chan string, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		RetryBackoff: time.Millisecond,
		OnPersisted:  func(seq int64, payload string) { persisted <- payload },
	})
	require.NoError(t, err)
	defer q.Close()

	q.Submit(addOp("c1", "hello"))
	waitPayload(t, persisted)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 3, store.attempts)
	assert.Len(t, store.writes, 1)
}

func TestGiveUpLeavesDirtyAndRetryRecovers(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound, failures: 10}
	persisted := make(chan string, 8)
	gaveUp := make(chan error, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		RetryBackoff: time.Millisecond,
		MaxAttempts:  2,
		OnPersisted:  func(seq int64, payload string) { persisted <- payload },
		OnGiveUp:     func(err error) { gaveUp <- err },
	})
	require.NoError(t, err)
	defer q.Close()

	q.Submit(addOp("c1", "hello"))

	select {
	case err := <-gaveUp:
		assert.ErrorIs(t, err, ErrPersistFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for give-up")
	}
	assert.True(t, q.Dirty())

	store.mu.Lock()
	store.failures = 0
	store.mu.Unlock()

	q.Retry()
	waitPayload(t, persisted)
	assert.False(t, q.Dirty())
	assert.Equal(t, "rec-1", q.RecordID())
}

func TestHandleRemoteSuppressedInsideCooldown(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound}
	clock := newFakeClock()
	persisted := make(chan string, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		Cooldown:    5 * time.Second,
		Now:         clock.Now,
		OnPersisted: func(seq int64, payload string) { persisted <- payload },
	})
	require.NoError(t, err)
	defer q.Close()

	q.Submit(addOp("c1", "mine"))
	waitPayload(t, persisted)

	remote, err := json.Marshal([]models.Comment{makeComment("r-remote", bob, "theirs")})
	require.NoError(t, err)

	// still inside the window: the inbound update is our own echo
	assert.False(t, q.HandleRemote(string(remote)))
	assert.Equal(t, "c1", q.Comments()[0].ID)

	clock.Advance(6 * time.Second)
	assert.True(t, q.HandleRemote(string(remote)))
	require.Len(t, q.Comments(), 1)
	assert.Equal(t, "r-remote", q.Comments()[0].ID)
}

func TestHandleRemoteIgnoredWhilePersistInFlight(t *testing.T) {
	store := &stubStore{
		fetchErr: gorm.ErrRecordNotFound,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	persisted := make(chan string, 8)
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{
		OnPersisted: func(seq int64, payload string) { persisted <- payload },
	})
	require.NoError(t, err)
	defer q.Close()

	q.Submit(addOp("c1", "mine"))
	<-store.started

	remote, err := json.Marshal([]models.Comment{makeComment("r-remote", bob, "theirs")})
	require.NoError(t, err)
	assert.False(t, q.HandleRemote(string(remote)))

	store.release <- struct{}{}
	waitPayload(t, persisted)
	assert.Equal(t, "c1", q.Comments()[0].ID)
}

func TestHandleRemoteMalformedPayloadDegradesToEmpty(t *testing.T) {
	store := &stubStore{fetchErr: gorm.ErrRecordNotFound}
	clock := newFakeClock()
	q, err := Open(context.Background(), store, "item", "42", zap.NewNop(), Options{Now: clock.Now})
	require.NoError(t, err)
	defer q.Close()

	assert.True(t, q.HandleRemote(`{"not":"a list"`))
	assert.Empty(t, q.Comments())
}

func TestParseConversation(t *testing.T) {
	log := zap.NewNop()

	assert.Empty(t, ParseConversation(nil, log))
	assert.NotNil(t, ParseConversation([]byte("  "), log))
	assert.Empty(t, ParseConversation([]byte("null"), log))
	assert.Empty(t, ParseConversation([]byte("{broken"), log))

	payload, err := json.Marshal(seedTree())
	require.NoError(t, err)
	parsed := ParseConversation(payload, log)
	require.Len(t, parsed, 2)
	assert.Equal(t, "first", models.PlainText(parsed[0].Content))
}
