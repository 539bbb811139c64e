package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvEntry is one KEY=VALUE line of a .env file.
type EnvEntry struct {
	Key       string
	Encrypted bool
}

// envFile is a .env file kept line by line so rewrites preserve comments,
// blank lines and ordering.
type envFile struct {
	path  string
	lines []string
}

func readEnvFile(path string) (*envFile, error) {
	ef := &envFile{path: path}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ef, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dotenv: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ef.lines = append(ef.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dotenv: %w", err)
	}
	return ef, nil
}

// parseLine returns the key and raw value of an assignment line.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	k, v, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.Trim(strings.TrimSpace(v), `"'`), true
}

func (ef *envFile) index(key string) int {
	for i, line := range ef.lines {
		if k, _, ok := parseLine(line); ok && k == key {
			return i
		}
	}
	return -1
}

func (ef *envFile) write() error {
	if err := os.MkdirAll(filepath.Dir(ef.path), 0o755); err != nil {
		return fmt.Errorf("create dotenv dir: %w", err)
	}
	content := strings.Join(ef.lines, "\n") + "\n"
	return os.WriteFile(ef.path, []byte(content), 0o600)
}

// SetEntry writes KEY=VALUE into the .env file at path, replacing an existing
// assignment in place or appending a new one.
func SetEntry(path, key, value string) error {
	ef, err := readEnvFile(path)
	if err != nil {
		return err
	}
	line := key + "=" + quoteValue(value)
	if i := ef.index(key); i >= 0 {
		ef.lines[i] = line
	} else {
		ef.lines = append(ef.lines, line)
	}
	return ef.write()
}

// RemoveEntry deletes the assignment of key. It reports whether one existed.
func RemoveEntry(path, key string) (bool, error) {
	ef, err := readEnvFile(path)
	if err != nil {
		return false, err
	}
	i := ef.index(key)
	if i < 0 {
		return false, nil
	}
	ef.lines = append(ef.lines[:i], ef.lines[i+1:]...)
	return true, ef.write()
}

// ListEntries returns the assignments of the .env file in file order. A
// missing file has no entries.
func ListEntries(path string) ([]EnvEntry, error) {
	ef, err := readEnvFile(path)
	if err != nil {
		return nil, err
	}
	var entries []EnvEntry
	for _, line := range ef.lines {
		if k, v, ok := parseLine(line); ok {
			entries = append(entries, EnvEntry{Key: k, Encrypted: IsEncrypted(v)})
		}
	}
	return entries, nil
}

// quoteValue double-quotes values a dotenv parser would otherwise split or expand.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, " \t\"'\\#$") {
		return v
	}
	escaped := strings.ReplaceAll(v, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
