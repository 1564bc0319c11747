package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
)

// ErrPersistFailed is returned by Flush when the store rejected every retry
// attempt. The local tree stays dirty and a later Retry picks it up.
var ErrPersistFailed = errors.New("conversation: persist failed")

// Store is the persistence surface the queue writes through. The backing
// record holds the whole serialized comment list; there is no partial
// update, every write overwrites the full payload.
type Store interface {
	Fetch(ctx context.Context, itemType, itemID string) (*models.ConversationModel, error)
	Create(ctx context.Context, itemType, itemID, payload string) (recordID string, err error)
	Update(ctx context.Context, recordID, payload string) error
}

// Options tunes a queue. Zero values fall back to sane defaults.
type Options struct {
	// Cooldown is the window after a local write during which inbound
	// realtime updates are treated as echoes of that write and dropped.
	Cooldown time.Duration
	// RetryBackoff is the base delay between persist attempts; it doubles
	// per attempt.
	RetryBackoff time.Duration
	// MaxAttempts caps persist attempts per snapshot before giving up.
	MaxAttempts int
	// Now is injectable for tests.
	Now func() time.Time
	// OnPersisted fires after a snapshot reached the store, with the
	// sequence number it covered and the payload that was written.
	OnPersisted func(seq int64, payload string)
	// OnGiveUp fires when a snapshot exhausted its attempts.
	OnGiveUp func(err error)
}

func (o *Options) withDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = 3 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 250 * time.Millisecond
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 4
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Queue sequences operation applications against one conversation record.
// Local applications are optimistic and synchronous; persists run on a
// single background worker, so snapshots always go out in order and a
// newer snapshot can coalesce over any number of unsent older ones.
type Queue struct {
	store Store
	log   *zap.Logger
	opts  Options

	itemType string
	itemID   string

	mu             sync.Mutex
	recordID       string
	comments       []models.Comment
	opSeq          int64
	persistedSeq   int64
	inflight       bool
	lastLocalWrite time.Time

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// Open loads (or lazily starts) the conversation for one CMS item and
// returns a running queue. A missing record is an empty conversation; the
// record itself is created on the first persist.
func Open(ctx context.Context, store Store, itemType, itemID string, log *zap.Logger, opts Options) (*Queue, error) {
	opts.withDefaults()
	q := &Queue{
		store:    store,
		log:      log,
		opts:     opts,
		itemType: itemType,
		itemID:   itemID,
		comments: []models.Comment{},
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	rec, err := store.Fetch(ctx, itemType, itemID)
	switch {
	case err == nil:
		q.recordID = rec.ID
		q.comments = ParseConversation([]byte(rec.Payload), log)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first write creates the record
	default:
		return nil, err
	}

	q.wg.Add(1)
	go q.run()
	return q, nil
}

// Close stops the background worker. Pending snapshots are not flushed.
func (q *Queue) Close() {
	close(q.done)
	q.wg.Wait()
}

// Comments returns a copy of the current local tree.
func (q *Queue) Comments() []models.Comment {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneComments(q.comments)
}

// RecordID returns the backing record id, empty until the first persist
// created it.
func (q *Queue) RecordID() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.recordID
}

// Dirty reports whether local state is ahead of the store.
func (q *Queue) Dirty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.opSeq != q.persistedSeq
}

// Submit applies op to the local tree immediately and, if it changed
// anything, schedules a persist of the new snapshot. The caller gets the
// engine result either way; conflicts come back as statuses, not errors.
func (q *Queue) Submit(op Operation) Result {
	q.mu.Lock()
	res := Apply(q.comments, op)
	if res.Status == StatusApplied {
		q.comments = res.Comments
		q.opSeq++
		q.lastLocalWrite = q.opts.Now()
		q.poke()
	}
	q.mu.Unlock()
	return res
}

// Retry reschedules a persist after a give-up. No-op when clean.
func (q *Queue) Retry() {
	q.mu.Lock()
	if q.opSeq != q.persistedSeq {
		q.poke()
	}
	q.mu.Unlock()
}

// HandleRemote feeds an inbound subscription payload into the queue. It
// reports whether the payload was accepted as the new local state. The
// payload is dropped while a persist is in flight, while local operations
// are still unsent, or inside the cooldown window after a local write;
// in all three cases it can only be an echo or a stale sibling of our own
// state, and local state wins.
func (q *Queue) HandleRemote(payload string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight || q.opSeq != q.persistedSeq {
		return false
	}
	if q.opts.Now().Sub(q.lastLocalWrite) < q.opts.Cooldown {
		return false
	}
	q.comments = ParseConversation([]byte(payload), q.log)
	return true
}

// poke wakes the worker. Callers hold q.mu; the channel is buffered so a
// pending wakeup absorbs any number of pokes.
func (q *Queue) poke() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case <-q.notify:
			q.drain()
		}
	}
}

// drain persists snapshots until the store has caught up with local state.
// Each loop iteration re-reads the latest tree, so snapshots coalesce: only
// the newest one goes out, and never after a newer one already has.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.opSeq == q.persistedSeq {
			q.mu.Unlock()
			return
		}
		seq := q.opSeq
		recordID := q.recordID
		payload, err := json.Marshal(q.comments)
		if err != nil {
			q.mu.Unlock()
			q.log.Error("conversation snapshot not serializable", zap.Error(err))
			return
		}
		q.inflight = true
		q.mu.Unlock()

		newID, perr := q.persist(recordID, string(payload))

		q.mu.Lock()
		q.inflight = false
		if perr == nil {
			if newID != "" {
				q.recordID = newID
			}
			if seq > q.persistedSeq {
				q.persistedSeq = seq
			}
		}
		q.mu.Unlock()

		if perr != nil {
			if q.opts.OnGiveUp != nil {
				q.opts.OnGiveUp(perr)
			}
			return
		}
		if q.opts.OnPersisted != nil {
			q.opts.OnPersisted(seq, string(payload))
		}
	}
}

// persist writes one snapshot with retry and exponential backoff. It
// returns the record id when the write created the record.
func (q *Queue) persist(recordID, payload string) (string, error) {
	backoff := q.opts.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		var createdID string
		if recordID == "" {
			createdID, err = q.store.Create(ctx, q.itemType, q.itemID, payload)
			if err == nil {
				recordID = createdID
			}
		} else {
			err = q.store.Update(ctx, recordID, payload)
		}
		cancel()

		if err == nil {
			return recordID, nil
		}
		lastErr = err
		q.log.Warn("conversation persist attempt failed",
			zap.String("item_type", q.itemType),
			zap.String("item_id", q.itemID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < q.opts.MaxAttempts {
			select {
			case <-q.done:
				return "", lastErr
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return "", errors.Join(ErrPersistFailed, lastErr)
}

// ParseConversation decodes a stored payload into a comment list. A
// malformed payload degrades to an empty conversation; the log line carries
// structural metadata only, never comment content.
func ParseConversation(raw []byte, log *zap.Logger) []models.Comment {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []models.Comment{}
	}
	var comments []models.Comment
	if err := json.Unmarshal(raw, &comments); err != nil {
		if log != nil {
			log.Warn("conversation payload unreadable, degrading to empty",
				zap.Int("payload_bytes", len(raw)))
		}
		return []models.Comment{}
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments
}
