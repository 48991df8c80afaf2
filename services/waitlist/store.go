package waitlist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"

	"interlingo/models"
)

// Store persists wait-list entries between scans. Due returns entries in
// retry priority order: short-time-slot entries first, then oldest
// enqueue first.
type Store interface {
	Enqueue(ctx context.Context, entry models.PaymentWaitListEntry) error
	Get(ctx context.Context, appointmentID string) (*models.PaymentWaitListEntry, error)
	Due(ctx context.Context, limit int) ([]models.PaymentWaitListEntry, error)
	Update(ctx context.Context, entry models.PaymentWaitListEntry) error
	Remove(ctx context.Context, appointmentID string) error
}

const (
	queueKey   = "payment:waitlist:queue"
	entriesKey = "payment:waitlist:entries"

	// shortSlotPriorityOffset pushes short-time-slot entries ahead of
	// every regular entry in the same scan.
	shortSlotPriorityOffset = 1e12
)

// RedisStore keeps the wait-list in a Redis sorted set so multiple
// instances share one retry queue.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Enqueue(ctx context.Context, entry models.PaymentWaitListEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal wait-list entry: %w", err)
	}
	apptID := entry.Appointment.ID
	if err := s.Client.HSet(ctx, entriesKey, apptID, data).Err(); err != nil {
		return err
	}
	return s.Client.ZAdd(ctx, queueKey, &redis.Z{Score: entryScore(entry), Member: apptID}).Err()
}

func (s *RedisStore) Get(ctx context.Context, appointmentID string) (*models.PaymentWaitListEntry, error) {
	data, err := s.Client.HGet(ctx, entriesKey, appointmentID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry models.PaymentWaitListEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wait-list entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) Due(ctx context.Context, limit int) ([]models.PaymentWaitListEntry, error) {
	ids, err := s.Client.ZRange(ctx, queueKey, 0, rangeStop(limit)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.PaymentWaitListEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (s *RedisStore) Update(ctx context.Context, entry models.PaymentWaitListEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal wait-list entry: %w", err)
	}
	return s.Client.HSet(ctx, entriesKey, entry.Appointment.ID, data).Err()
}

func (s *RedisStore) Remove(ctx context.Context, appointmentID string) error {
	if err := s.Client.ZRem(ctx, queueKey, appointmentID).Err(); err != nil {
		return err
	}
	return s.Client.HDel(ctx, entriesKey, appointmentID).Err()
}

// rangeStop converts a batch limit into a ZRANGE stop index. A
// non-positive limit means the whole queue (stop index -1).
func rangeStop(limit int) int64 {
	if limit <= 0 {
		return -1
	}
	return int64(limit) - 1
}

func entryScore(entry models.PaymentWaitListEntry) float64 {
	score := float64(entry.EnqueuedAt.Unix())
	if entry.IsShortTimeSlot {
		score -= shortSlotPriorityOffset
	}
	return score
}

// MemoryStore is the in-process fallback used when Redis is not
// configured, and by tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]models.PaymentWaitListEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.PaymentWaitListEntry)}
}

func (s *MemoryStore) Enqueue(ctx context.Context, entry models.PaymentWaitListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Appointment.ID] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, appointmentID string) (*models.PaymentWaitListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[appointmentID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Due(ctx context.Context, limit int) ([]models.PaymentWaitListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.PaymentWaitListEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entryScore(entries[i]) < entryScore(entries[j])
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) Update(ctx context.Context, entry models.PaymentWaitListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Appointment.ID] = entry
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, appointmentID)
	return nil
}
