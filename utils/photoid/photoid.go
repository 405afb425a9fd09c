package photoid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropyMu   sync.Mutex
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a pv_* ULID string.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "pv_" + strings.ToLower(id.String())
}

// NewBackupID returns a bak_* ULID string for archival jobs.
func NewBackupID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "bak_" + strings.ToLower(id.String())
}

// Suffix returns a short random token used to disambiguate storage keys
// generated within the same millisecond.
func Suffix() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	s := strings.ToLower(id.String())
	// The last 16 characters carry the entropy; 8 are enough for key suffixes.
	return s[len(s)-8:]
}

// IsValid reports whether the string is a pv_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "pv_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the pv_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "pv_")
	value = strings.TrimPrefix(value, "PV_")
	return ulid.Parse(value)
}
