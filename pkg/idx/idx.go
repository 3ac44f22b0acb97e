package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26 character form. Accounts, sessions and
// request ids all use it so they sort by creation time.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	once    sync.Once
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
)

func initEntropy() {
	entropy = ulid.Monotonic(rand.Reader, 0)
}

// New returns an ID stamped with the current UTC time.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt returns an ID stamped with t. Mostly useful in tests.
func NewAt(t time.Time) ID {
	once.Do(initEntropy)

	mu.Lock()
	defer mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse validates s as a strict ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp, or the zero time for invalid ids.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
