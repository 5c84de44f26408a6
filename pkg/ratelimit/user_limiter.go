package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserLimiter, kullanıcı bazlı token bucket limiter (golang.org/x/time/rate).
// Başvuru gönderimi gibi authenticated endpoint'lerde kullanılır.
type UserLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userEntry
	every    time.Duration
	burst    int
	idleTTL  time.Duration
}

type userEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserLimiter, her `every` süresinde bir token üreten, en fazla `burst`
// birikmesine izin veren limiter oluşturur.
func NewUserLimiter(every time.Duration, burst int) *UserLimiter {
	return &UserLimiter{
		limiters: make(map[int64]*userEntry),
		every:    every,
		burst:    burst,
		idleTTL:  every * time.Duration(burst+1),
	}
}

// Allow, kullanıcının bir istek daha yapıp yapamayacağını döner.
func (l *UserLimiter) Allow(userID int64) bool {
	return l.get(userID).Allow()
}

// RetryAfter, bir sonraki token'a kalan süre. Token harcamaz.
func (l *UserLimiter) RetryAfter(userID int64) time.Duration {
	r := l.get(userID).Reserve()
	defer r.Cancel()
	return r.Delay()
}

func (l *UserLimiter) get(userID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.limiters[userID]
	if !ok {
		e = &userEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[userID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Cleanup, uzun süredir görülmeyen kullanıcıların limiter'larını siler.
// Housekeeping job'ı tarafından periyodik çağrılır; silinen sayıyı döner.
func (l *UserLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.idleTTL)
	removed := 0
	for id, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}
