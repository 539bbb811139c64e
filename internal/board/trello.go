package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTrelloBaseURL is the public Trello REST endpoint.
	DefaultTrelloBaseURL = "https://api.trello.com/1"
	// DefaultBoardName is the board the secretary works on.
	DefaultBoardName = "Secretary"

	trelloLabelColor = "sky"
	// Trello returns 50 labels unless asked for more.
	trelloLabelLimit = "1000"
)

// TrelloConfig configures the Trello backend.
type TrelloConfig struct {
	APIKey    string
	Token     string
	BoardName string
	BaseURL   string
	Client    *http.Client
}

// Trello is a Store backed by a Trello board.
type Trello struct {
	cfg    TrelloConfig
	client *http.Client

	mu      sync.Mutex
	boardID string
	lists   map[string]string // name → id
}

// NewTrello creates a Trello backend. The board is resolved by name on first use.
func NewTrello(cfg TrelloConfig) *Trello {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTrelloBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BoardName == "" {
		cfg.BoardName = DefaultBoardName
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Trello{cfg: cfg, client: client, lists: make(map[string]string)}
}

type trelloCard struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Desc   string  `json:"desc"`
	Due    *string `json:"due"`
	Closed bool    `json:"closed"`
	URL    string  `json:"url"`
	IDList string  `json:"idList"`
	Labels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"labels"`
	IDLabels []string `json:"idLabels"`
}

type trelloNamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (t *Trello) toCard(tc trelloCard) Card {
	c := Card{
		ID:          tc.ID,
		Name:        tc.Name,
		Description: tc.Desc,
		Closed:      tc.Closed,
		URL:         tc.URL,
	}
	if tc.Due != nil {
		if due, err := ParseISO(*tc.Due); err == nil {
			c.Due = &due
		}
	}
	for _, l := range tc.Labels {
		if l.Name != "" {
			c.Labels = append(c.Labels, l.Name)
		}
	}
	t.mu.Lock()
	for name, id := range t.lists {
		if id == tc.IDList {
			c.List = name
		}
	}
	t.mu.Unlock()
	return c
}

func (t *Trello) Tasks(ctx context.Context, loc *time.Location) ([]Card, error) {
	boardID, err := t.board(ctx)
	if err != nil {
		return nil, err
	}
	var raw []trelloCard
	if err := t.do(ctx, http.MethodGet, "/boards/"+boardID+"/cards/open", nil, &raw); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	cards := make([]Card, 0, len(raw))
	for _, tc := range raw {
		cards = append(cards, t.toCard(tc))
	}
	return InLocation(cards, loc), nil
}

func (t *Trello) Labels(ctx context.Context) (map[string]string, error) {
	boardID, err := t.board(ctx)
	if err != nil {
		return nil, err
	}
	var raw []trelloNamed
	q := url.Values{}
	q.Set("fields", "name")
	q.Set("limit", trelloLabelLimit)
	if err := t.do(ctx, http.MethodGet, "/boards/"+boardID+"/labels", q, &raw); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	labels := make(map[string]string, len(raw))
	for _, l := range raw {
		if l.Name != "" {
			labels[l.Name] = l.ID
		}
	}
	return labels, nil
}

func (t *Trello) CreateTask(ctx context.Context, task NewTask) (*Card, error) {
	listName := task.Type
	if listName == "" {
		listName = TypeActionItems
	}
	listID, err := t.list(ctx, listName)
	if err != nil {
		return nil, err
	}
	labelIDs, err := t.labelIDs(ctx, task.Topics)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("idList", listID)
	q.Set("name", CardName(task.Summary))
	q.Set("desc", Describe(task.Requestor, task.Actor, task.Notes))
	if task.Due != nil {
		q.Set("due", FormatISO(*task.Due))
	}
	if len(labelIDs) > 0 {
		q.Set("idLabels", strings.Join(labelIDs, ","))
	}

	var tc trelloCard
	if err := t.do(ctx, http.MethodPost, "/cards", q, &tc); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	c := t.toCard(tc)
	return &c, nil
}

func (t *Trello) UpdateDescription(ctx context.Context, id, description string) (*Card, error) {
	return t.updateCard(ctx, id, "desc", description)
}

func (t *Trello) UpdateDueDate(ctx context.Context, id string, due time.Time) (*Card, error) {
	return t.updateCard(ctx, id, "due", FormatISO(due))
}

func (t *Trello) MarkCompleted(ctx context.Context, id string) (*Card, error) {
	card, err := t.card(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.do(ctx, http.MethodDelete, "/cards/"+url.PathEscape(id), nil, nil); err != nil {
		return nil, fmt.Errorf("delete card %s: %w", id, err)
	}
	return card, nil
}

func (t *Trello) AddLabels(ctx context.Context, id string, names []string) (*Card, error) {
	var tc trelloCard
	if err := t.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(id), nil, &tc); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	toAdd, err := t.labelIDs(ctx, names)
	if err != nil {
		return nil, err
	}

	ids := append([]string(nil), tc.IDLabels...)
	have := make(map[string]bool, len(ids))
	for _, l := range ids {
		have[l] = true
	}
	for _, l := range toAdd {
		if !have[l] {
			have[l] = true
			ids = append(ids, l)
		}
	}
	if len(ids) == len(tc.IDLabels) {
		c := t.toCard(tc)
		return &c, nil
	}
	return t.updateCard(ctx, id, "idLabels", strings.Join(ids, ","))
}

func (t *Trello) card(ctx context.Context, id string) (*Card, error) {
	var tc trelloCard
	if err := t.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(id), nil, &tc); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	c := t.toCard(tc)
	return &c, nil
}

func (t *Trello) updateCard(ctx context.Context, id, field, value string) (*Card, error) {
	q := url.Values{}
	q.Set(field, value)
	var tc trelloCard
	if err := t.do(ctx, http.MethodPut, "/cards/"+url.PathEscape(id), q, &tc); err != nil {
		return nil, fmt.Errorf("update card %s: %w", id, err)
	}
	c := t.toCard(tc)
	return &c, nil
}

// board resolves and caches the board id.
func (t *Trello) board(ctx context.Context) (string, error) {
	t.mu.Lock()
	id := t.boardID
	t.mu.Unlock()
	if id != "" {
		return id, nil
	}

	var boards []trelloNamed
	q := url.Values{}
	q.Set("fields", "name")
	if err := t.do(ctx, http.MethodGet, "/members/me/boards", q, &boards); err != nil {
		return "", fmt.Errorf("list boards: %w", err)
	}
	for _, b := range boards {
		if b.Name == t.cfg.BoardName {
			t.mu.Lock()
			t.boardID = b.ID
			t.mu.Unlock()
			return b.ID, nil
		}
	}
	return "", fmt.Errorf("trello board %q not found", t.cfg.BoardName)
}

// list returns the id of the named list, creating it when missing.
func (t *Trello) list(ctx context.Context, name string) (string, error) {
	boardID, err := t.board(ctx)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	id, ok := t.lists[name]
	t.mu.Unlock()
	if ok {
		return id, nil
	}

	var lists []trelloNamed
	if err := t.do(ctx, http.MethodGet, "/boards/"+boardID+"/lists", nil, &lists); err != nil {
		return "", fmt.Errorf("list lists: %w", err)
	}
	t.mu.Lock()
	for _, l := range lists {
		t.lists[l.Name] = l.ID
	}
	id, ok = t.lists[name]
	t.mu.Unlock()
	if ok {
		return id, nil
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("idBoard", boardID)
	var created trelloNamed
	if err := t.do(ctx, http.MethodPost, "/lists", q, &created); err != nil {
		return "", fmt.Errorf("create list %q: %w", name, err)
	}
	t.mu.Lock()
	t.lists[name] = created.ID
	t.mu.Unlock()
	return created.ID, nil
}

// labelIDs resolves label names to ids, creating missing labels lower-cased.
// Existing labels match regardless of case.
func (t *Trello) labelIDs(ctx context.Context, names []string) ([]string, error) {
	wanted := NormalizeLabels(names)
	if len(wanted) == 0 {
		return nil, nil
	}
	labels, err := t.Labels(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]string, len(labels))
	for name, id := range labels {
		existing[strings.ToLower(name)] = id
	}
	boardID, err := t.board(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(wanted))
	for _, name := range wanted {
		if id, ok := existing[name]; ok {
			ids = append(ids, id)
			continue
		}
		q := url.Values{}
		q.Set("name", name)
		q.Set("color", trelloLabelColor)
		q.Set("idBoard", boardID)
		var created trelloNamed
		if err := t.do(ctx, http.MethodPost, "/labels", q, &created); err != nil {
			return nil, fmt.Errorf("create label %q: %w", name, err)
		}
		existing[name] = created.ID
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func (t *Trello) do(ctx context.Context, method, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", t.cfg.APIKey)
	q.Set("token", t.cfg.Token)

	req, err := http.NewRequestWithContext(ctx, method, t.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trello %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Store = (*Trello)(nil)
