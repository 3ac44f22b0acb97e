package directory

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"sync/atomic"
)

// Principal is an entry in a Static directory.
type Principal struct {
	Password    string
	DisplayName string
	Email       string
}

// Static is an in-memory directory for development mode and tests. It always
// reports whether a principal exists.
type Static struct {
	mu         sync.RWMutex
	principals map[string]Principal
	calls      atomic.Int64
}

func NewStatic(principals map[string]Principal) *Static {
	s := &Static{principals: make(map[string]Principal, len(principals))}
	for name, p := range principals {
		s.principals[strings.ToLower(name)] = p
	}
	return s
}

// Add registers or replaces a principal.
func (s *Static) Add(username string, p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[strings.ToLower(username)] = p
}

// Calls returns how many times Authenticate reached the directory, which
// excludes empty password short circuits.
func (s *Static) Calls() int64 { return s.calls.Load() }

func (s *Static) Authenticate(_ context.Context, username, password string) Result {
	if password == "" || username == "" {
		return Result{}
	}
	s.calls.Add(1)

	s.mu.RLock()
	p, ok := s.principals[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return Result{}
	}

	return Result{
		OK:          subtle.ConstantTimeCompare([]byte(p.Password), []byte(password)) == 1,
		Exists:      true,
		DN:          "uid=" + username,
		DisplayName: p.DisplayName,
		Email:       p.Email,
	}
}
