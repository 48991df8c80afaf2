package payment

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"interlingo/utils"
)

// AppointmentLocks enforces at most one in-flight settlement operation
// per appointment's payment aggregate. Authorize, capture and transfer
// are not commutative, so the state machine and the wait-list scan take
// the same per-appointment key before touching a payment. Different
// appointments proceed in parallel without contention.
type AppointmentLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry

	// Redis, when configured, extends the exclusion across processes via
	// a short lease on the appointment key.
	Redis    *redis.Client
	LeaseTTL time.Duration
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewAppointmentLocks(redisClient *redis.Client, leaseTTL time.Duration) *AppointmentLocks {
	if leaseTTL <= 0 {
		leaseTTL = utils.PaymentLockLeaseTTL
	}
	return &AppointmentLocks{
		entries:  make(map[string]*lockEntry),
		Redis:    redisClient,
		LeaseTTL: leaseTTL,
	}
}

// Lock acquires the per-appointment key and returns the release func.
func (l *AppointmentLocks) Lock(ctx context.Context, appointmentID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[appointmentID]
	if !ok {
		entry = &lockEntry{}
		l.entries[appointmentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	leaseKey := utils.PaymentLockPrefix + appointmentID
	if l.Redis != nil {
		for {
			ok, err := l.Redis.SetNX(ctx, leaseKey, "1", l.LeaseTTL).Result()
			if err != nil {
				l.release(appointmentID, entry, "")
				return nil, err
			}
			if ok {
				break
			}
			select {
			case <-ctx.Done():
				l.release(appointmentID, entry, "")
				return nil, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}

	return func() { l.release(appointmentID, entry, leaseKey) }, nil
}

func (l *AppointmentLocks) release(appointmentID string, entry *lockEntry, leaseKey string) {
	if l.Redis != nil && leaseKey != "" {
		l.Redis.Del(context.Background(), leaseKey)
	}
	entry.mu.Unlock()

	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, appointmentID)
	}
	l.mu.Unlock()
}
