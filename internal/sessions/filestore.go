package sessions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/secretary/internal/conversation"
)

// keyNamespace derives stable session ids from transport keys.
var keyNamespace = uuid.MustParse("5b1f0c8e-8f4a-4c1e-9d3b-2a7e6c0f9a41")

// FileStore persists sessions as directories with meta.json + messages.jsonl.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir, now: time.Now}
}

func (fs *FileStore) dir(id string) sessionDir {
	return sessionDir(filepath.Join(fs.baseDir, id))
}

// SessionID returns the id a transport key maps to.
func SessionID(key string) string {
	u := uuid.NewSHA1(keyNamespace, []byte(key)).String()
	return "sess_" + strings.ReplaceAll(u[:13], "-", "")
}

func (fs *FileStore) Open(key string) (*Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.dir(SessionID(key))
	s, err := d.readMeta()
	if !errors.Is(err, ErrNotFound) {
		return s, err
	}

	now := fs.now()
	s = &Session{ID: SessionID(key), Key: key, CreatedAt: now, UpdatedAt: now}
	if err := d.writeMeta(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (fs *FileStore) Get(id string) (*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.dir(id).readMeta()
}

// List returns all sessions, most recently updated first.
func (fs *FileStore) List() ([]*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	dirs, err := os.ReadDir(fs.baseDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []*Session
	for _, entry := range dirs {
		if !entry.IsDir() {
			continue
		}
		s, err := fs.dir(entry.Name()).readMeta()
		if err != nil {
			continue // skip corrupted sessions
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (fs *FileStore) UpdateMeta(s *Session) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s.UpdatedAt = fs.now()
	return fs.dir(s.ID).writeMeta(s)
}

func (fs *FileStore) AppendTurn(id string, turn conversation.Turn) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.append(id, Entry{Kind: EntryTurn, Role: turn.Role, Content: turn.Content}, func(s *Session) {
		s.MessageCount++
	})
}

func (fs *FileStore) Reset(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.append(id, Entry{Kind: EntryReset}, func(s *Session) {
		s.LastResetAt = fs.now()
	})
}

// append writes an entry and updates meta. Callers hold the write lock.
func (fs *FileStore) append(id string, e Entry, mutate func(*Session)) error {
	d := fs.dir(id)
	s, err := d.readMeta()
	if err != nil {
		return err
	}
	e.Ts = fs.now()
	if err := d.appendEntry(e); err != nil {
		return err
	}
	mutate(s)
	s.UpdatedAt = e.Ts
	return d.writeMeta(s)
}

// Entries returns the full transcript, reset markers included.
func (fs *FileStore) Entries(id string) ([]Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.dir(id).entries()
}

func (fs *FileStore) Window(id string, n int) ([]conversation.Turn, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := fs.dir(id).entries()
	if err != nil {
		return nil, err
	}

	var turns []conversation.Turn
	for _, e := range entries {
		switch e.Kind {
		case EntryReset:
			turns = turns[:0]
		case EntryTurn:
			turns = append(turns, conversation.Turn{Role: e.Role, Content: e.Content})
		}
	}
	if n >= 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns, nil
}

var _ Store = (*FileStore)(nil)
