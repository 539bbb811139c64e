// Package heartbeat lets `secretary status` tell whether a `serve` process is
// running and what it serves.
package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status represents the liveness state of the server.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// DefaultInterval is how often the heartbeat file is refreshed.
const DefaultInterval = 30 * time.Second

// Info describes what the running server exposes.
type Info struct {
	Gateway    string   `json:"gateway"`
	Board      string   `json:"board"`
	Transports []string `json:"transports"`
	Digests    bool     `json:"digests"`
}

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	Info
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// Uptime is the time between start and the last beat.
func (h Heartbeat) Uptime() time.Duration {
	return h.Timestamp.Sub(h.StartedAt).Truncate(time.Second)
}

// Writer periodically writes a heartbeat file to disk.
type Writer struct {
	path     string
	interval time.Duration
	info     Info
}

// NewWriter creates a heartbeat writer for path.
func NewWriter(path string, info Info) *Writer {
	return &Writer{path: path, interval: DefaultInterval, info: info}
}

// Run writes a heartbeat immediately and then every interval until ctx is
// done, removing the file on return.
func (w *Writer) Run(ctx context.Context) {
	started := time.Now()
	w.write(started)
	defer os.Remove(w.path)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.write(started)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Writer) write(started time.Time) {
	hb := Heartbeat{
		Info:      w.info,
		PID:       os.Getpid(),
		StartedAt: started,
		Timestamp: time.Now(),
	}

	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return
	}

	// Atomic write: tmp + rename
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	os.Rename(tmp, w.path)
}

// Check reads a heartbeat file and returns the liveness status.
// maxAge determines how old a heartbeat can be before it's considered stale.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDead, nil, nil
		}
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}

	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
