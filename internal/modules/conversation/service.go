package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/pkg/pagination"
	pkgredis "github.com/threadsync/core/internal/pkg/redis"
	"github.com/threadsync/core/internal/pkg/response"
)

const (
	// EventUpdated is emitted to a conversation room after every persist.
	EventUpdated = "conversation:updated"
	// updatesChannel fans persisted snapshots out to sibling processes.
	updatesChannel = "threadsync:conversation:updates"
	// recentWriterKeyPrefix backs the server-side view of the cooldown
	// window, one short-TTL key per conversation.
	recentWriterKeyPrefix = "threadsync:conversation:writer:"
)

// Broadcaster pushes an event to every client in a realtime room. The
// gateway hub satisfies it.
type Broadcaster interface {
	Broadcast(event string, payload interface{}, room string)
}

// Service owns one SyncQueue per open conversation and routes every write
// through it, so the optimistic-apply / ordered-persist / echo-suppression
// semantics hold for all writers.
type Service struct {
	db    *gorm.DB
	store Store
	log   *zap.Logger
	hub   Broadcaster
	rc    *pkgredis.Client
	opts  Options

	mu     sync.Mutex
	queues map[string]*Queue
}

func NewService(db *gorm.DB, log *zap.Logger, hub Broadcaster, rc *pkgredis.Client, opts Options) *Service {
	return &Service{
		db:     db,
		store:  NewStore(db),
		log:    log,
		hub:    hub,
		rc:     rc,
		opts:   opts,
		queues: make(map[string]*Queue),
	}
}

// Run consumes persisted-snapshot events from sibling processes until ctx
// is cancelled. An event for a conversation this process also has open is
// offered to the local queue, which drops it when it is merely the echo of
// our own write.
func (s *Service) Run(ctx context.Context) {
	if s.rc == nil {
		return
	}
	pubsub := s.rc.Subscribe(ctx, updatesChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev UpdateEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			s.mu.Lock()
			q := s.queues[ev.ItemType+":"+ev.ItemID]
			s.mu.Unlock()
			if q != nil {
				q.HandleRemote(ev.Payload)
			}
		}
	}
}

// Close shuts down every open queue.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		q.Close()
	}
	s.queues = make(map[string]*Queue)
}

// queue returns the open queue for one CMS item, opening it on first use.
func (s *Service) queue(ctx context.Context, itemType, itemID string) (*Queue, error) {
	key := itemType + ":" + itemID

	s.mu.Lock()
	if q, ok := s.queues[key]; ok {
		s.mu.Unlock()
		return q, nil
	}
	s.mu.Unlock()

	opts := s.opts
	opts.OnPersisted = func(seq int64, payload string) {
		s.onPersisted(itemType, itemID, payload)
	}
	opts.OnGiveUp = func(err error) {
		s.log.Error("conversation persist gave up",
			zap.String("item_type", itemType),
			zap.String("item_id", itemID),
			zap.Error(err))
	}

	q, err := Open(ctx, s.store, itemType, itemID, s.log, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.queues[key]; ok {
		// raced with another opener
		q.Close()
		return existing, nil
	}
	s.queues[key] = q
	return q, nil
}

// onPersisted publishes the new snapshot to connected clients and sibling
// processes, and refreshes the recent-writer marker.
func (s *Service) onPersisted(itemType, itemID, payload string) {
	ev := UpdateEvent{ItemType: itemType, ItemID: itemID, Payload: payload}
	if s.hub != nil {
		s.hub.Broadcast(EventUpdated, ev, RoomFor(itemType, itemID))
	}
	if s.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(ev)
	if err == nil {
		if err := s.rc.Publish(ctx, updatesChannel, string(data)); err != nil {
			s.log.Warn("conversation fanout publish failed", zap.Error(err))
		}
	}
	cooldown := s.opts.Cooldown
	if cooldown <= 0 {
		cooldown = 3 * time.Second
	}
	if err := s.rc.Set(ctx, recentWriterKeyPrefix+itemType+":"+itemID, time.Now().UnixMilli(), cooldown); err != nil {
		s.log.Warn("recent-writer marker set failed", zap.Error(err))
	}
}

// Get returns the current comment tree of one conversation.
func (s *Service) Get(ctx context.Context, itemType, itemID string) ([]models.Comment, bool, error) {
	q, err := s.queue(ctx, itemType, itemID)
	if err != nil {
		return nil, false, err
	}
	return q.Comments(), q.Dirty(), nil
}

// Submit routes one operation through the item's queue.
func (s *Service) Submit(ctx context.Context, itemType, itemID string, op Operation) (Result, error) {
	q, err := s.queue(ctx, itemType, itemID)
	if err != nil {
		return Result{}, err
	}
	return q.Submit(op), nil
}

// List pages over all stored conversations, newest activity first.
func (s *Service) List(q pagination.Query) ([]models.ConversationModel, response.Pagination, error) {
	tx := s.db.Model(&models.ConversationModel{}).Order("updated_at DESC")
	var rows []models.ConversationModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}
