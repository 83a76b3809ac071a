package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
)

// Codes are six digits in [100000, 999999].
const (
	codeMin = 100000
	codeMax = 999999
)

type pendingReset struct {
	userID int64
	code   string
}

// ResetStore keeps outstanding password-reset codes in memory.
type ResetStore struct {
	codes   *cache.Cache
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewResetStore creates a store whose codes expire after ttl.
func NewResetStore(ttl time.Duration) *ResetStore {
	return &ResetStore{
		codes:   cache.New(ttl, 2*ttl),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Begin registers a reset for userID and returns the request ID and the code to send.
func (s *ResetStore) Begin(userID int64) (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+codeMin)

	s.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	s.mu.Unlock()

	s.codes.SetDefault(id, pendingReset{userID: userID, code: code})
	return id, code, nil
}

// Verify checks code against requestID. A successful match consumes the request.
func (s *ResetStore) Verify(requestID, code string) (int64, bool) {
	v, found := s.codes.Get(requestID)
	if !found {
		return 0, false
	}
	p := v.(pendingReset)
	if p.code != code {
		return 0, false
	}
	s.codes.Delete(requestID)
	return p.userID, true
}
