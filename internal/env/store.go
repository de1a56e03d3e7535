package env

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Well-known variable names.
const (
	FileSize   = "filesize"
	FileAddr   = "fileaddr"
	LoadAddr   = "loadaddr"
	EthAct     = "ethact"
	HTTPServer = "httpserverip"
	Server     = "serverip"
)

// Store is the environment that downloads read defaults from and publish
// their results to.
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	SetHex(name string, value uint64) error
}

// FormatHex renders a value the way SetHex stores it.
func FormatHex(v uint64) string {
	return strconv.FormatUint(v, 16)
}

// ParseHex parses a hex value with an optional 0x prefix.
func ParseHex(s string) (uint64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return v, nil
}

// MapStore keeps variables in memory.
type MapStore struct {
	mu   sync.RWMutex
	vars map[string]string
}

func NewMapStore(initial map[string]string) *MapStore {
	s := &MapStore{vars: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.vars[k] = v
	}
	return s
}

func (s *MapStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

func (s *MapStore) Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("empty variable name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.vars, name)
		return nil
	}
	s.vars[name] = value
	return nil
}

func (s *MapStore) SetHex(name string, value uint64) error {
	return s.Set(name, FormatHex(value))
}

// Names returns the defined variable names in sorted order.
func (s *MapStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *MapStore) snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}
