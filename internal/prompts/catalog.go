package prompts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog maps intents to system-prompt templates.
// The zero value is not usable; call NewCatalog.
type Catalog struct {
	mu      sync.RWMutex
	prompts map[Intent]string
}

// NewCatalog returns a catalog populated with the built-in prompts.
func NewCatalog() *Catalog {
	return &Catalog{
		prompts: map[Intent]string{
			Secretary:    DefaultSecretary,
			ExtractTasks: DefaultExtractTasks,
			FollowUp:     DefaultFollowUp,
		},
	}
}

// overrideFile is the on-disk shape of a prompt override file:
//
//	secretary: |
//	  You are ...
//	follow_up: |
//	  ...
type overrideFile map[Intent]string

// LoadCatalog returns the built-in catalog with overrides from a YAML file
// applied. An empty path yields the built-ins.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	if err := c.Apply(data); err != nil {
		return nil, fmt.Errorf("prompts %s: %w", path, err)
	}
	return c, nil
}

// Apply merges YAML overrides into the catalog. Unknown intents are rejected
// so a typo does not silently leave a built-in in place.
func (c *Catalog) Apply(data []byte) error {
	var overrides overrideFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for intent, text := range overrides {
		if _, ok := c.prompts[intent]; !ok {
			return fmt.Errorf("unknown prompt %q", intent)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("prompt %q is empty", intent)
		}
		if intent == FollowUp && !strings.Contains(text, TaskListPlaceholder) {
			return fmt.Errorf("prompt %q must mention %s", intent, TaskListPlaceholder)
		}
		c.prompts[intent] = text
	}
	return nil
}

// Get returns the template for an intent, or "" if none is registered.
func (c *Catalog) Get(intent Intent) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prompts[intent]
}

// WithNow appends the current local time sentence the model uses to resolve
// relative dates.
func WithNow(prompt, now string) string {
	return prompt + "\nThe current date and time is " + now + "."
}
