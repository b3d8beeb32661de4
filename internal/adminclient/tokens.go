package adminclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore holds the session credential. Implementations must be safe
// for concurrent use; the client reads on every request.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	Set(access, refresh string)
	Clear()
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *MemoryTokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *MemoryTokenStore) Set(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
}

// FileTokenStore persists tokens as JSON so adminctl sessions survive
// between invocations. File mode 0600; the refresh token is a credential.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewFileTokenStore creates a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath is where adminctl keeps its session by default.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".faceattend-session.json"
	}
	return filepath.Join(home, ".faceattend-session.json")
}

func (s *FileTokenStore) load() tokenFile {
	var tf tokenFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		return tf
	}
	_ = json.Unmarshal(data, &tf)
	return tf
}

func (s *FileTokenStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().AccessToken
}

func (s *FileTokenStore) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().RefreshToken
}

func (s *FileTokenStore) Set(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(tokenFile{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o600)
}

func (s *FileTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path)
}
