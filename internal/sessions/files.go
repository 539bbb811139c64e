package sessions

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a session id has no metadata on disk.
var ErrNotFound = errors.New("sessions: session not found")

const (
	metaFile       = "meta.json"
	transcriptFile = "messages.jsonl"
)

// sessionDir is the on-disk layout of one session: a meta.json document and
// an append-only messages.jsonl transcript.
type sessionDir string

func (d sessionDir) path(name string) string { return filepath.Join(string(d), name) }

func (d sessionDir) readMeta() (*Session, error) {
	data, err := os.ReadFile(d.path(metaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("session %s: %w", filepath.Base(string(d)), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return &s, nil
}

// writeMeta replaces meta.json atomically (temp file + rename).
func (d sessionDir) writeMeta(s *Session) error {
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	tmp := d.path(metaFile) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	if err := os.Rename(tmp, d.path(metaFile)); err != nil {
		return fmt.Errorf("rename meta: %w", err)
	}
	return nil
}

func (d sessionDir) appendEntry(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	f, err := os.OpenFile(d.path(transcriptFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// entries decodes the transcript. A half-written last line from a crash is
// skipped; a missing transcript has no entries.
func (d sessionDir) entries() ([]Entry, error) {
	f, err := os.Open(d.path(transcriptFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if len(scanner.Bytes()) == 0 || json.Unmarshal(scanner.Bytes(), &e) != nil {
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return out, nil
}
