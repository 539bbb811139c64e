package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultURLBase prefixes card links of the local board.
const DefaultURLBase = "secretary://cards"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lists (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS labels (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS cards (
	id          TEXT PRIMARY KEY,
	list_id     TEXT NOT NULL REFERENCES lists(id),
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due         TEXT,
	closed      INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS card_labels (
	card_id  TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	label_id TEXT NOT NULL REFERENCES labels(id),
	PRIMARY KEY (card_id, label_id)
);
CREATE INDEX IF NOT EXISTS idx_cards_list ON cards(list_id);
`

// SQLite is a Store backed by a local SQLite database.
type SQLite struct {
	db      *sql.DB
	urlBase string
}

// OpenSQLite opens (and migrates) the board database at path.
func OpenSQLite(path, urlBase string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create board dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open board db: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate board db: %w", err)
	}
	if urlBase == "" {
		urlBase = DefaultURLBase
	}
	return &SQLite{db: db, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLite) Tasks(ctx context.Context, loc *time.Location) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.due, c.closed, l.name
		FROM cards c JOIN lists l ON l.id = c.list_id
		WHERE c.closed = 0
		ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	var cards []Card
	for rows.Next() {
		c, err := s.scanCard(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	labels, err := s.cardLabels(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].Labels = labels[cards[i].ID]
	}
	return InLocation(cards, loc), nil
}

func (s *SQLite) Labels(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM labels`)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		labels[name] = id
	}
	return labels, rows.Err()
}

func (s *SQLite) CreateTask(ctx context.Context, task NewTask) (*Card, error) {
	listName := task.Type
	if listName == "" {
		listName = TypeActionItems
	}

	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		listID, err := ensureRow(ctx, tx, "lists", listName)
		if err != nil {
			return err
		}
		id = uuid.NewString()
		var due any
		if task.Due != nil {
			due = FormatISO(*task.Due)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (id, list_id, name, description, due, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, listID, CardName(task.Summary), Describe(task.Requestor, task.Actor, task.Notes), due,
			FormatISO(time.Now()),
		); err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
		return attachLabels(ctx, tx, id, task.Topics)
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.getCard(ctx, s.db, id)
}

func (s *SQLite) UpdateDescription(ctx context.Context, id, description string) (*Card, error) {
	return s.update(ctx, id, `UPDATE cards SET description = ? WHERE id = ?`, description)
}

func (s *SQLite) UpdateDueDate(ctx context.Context, id string, due time.Time) (*Card, error) {
	return s.update(ctx, id, `UPDATE cards SET due = ? WHERE id = ?`, FormatISO(due))
}

func (s *SQLite) update(ctx context.Context, id, stmt string, value any) (*Card, error) {
	res, err := s.db.ExecContext(ctx, stmt, value, id)
	if err != nil {
		return nil, fmt.Errorf("update card %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update card %s: %w", id, ErrNotFound)
	}
	return s.getCard(ctx, s.db, id)
}

func (s *SQLite) MarkCompleted(ctx context.Context, id string) (*Card, error) {
	var card *Card
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if card, err = s.getCard(ctx, tx, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("complete card %s: %w", id, err)
	}
	return card, nil
}

func (s *SQLite) AddLabels(ctx context.Context, id string, names []string) (*Card, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return attachLabels(ctx, tx, id, names)
	})
	if err != nil {
		return nil, fmt.Errorf("label card %s: %w", id, err)
	}
	return s.getCard(ctx, s.db, id)
}

func (s *SQLite) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ensureRow returns the id of the named row in a name-keyed table, creating it
// when missing.
func ensureRow(ctx context.Context, q querier, table, name string) (string, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO `+table+` (id, name) VALUES (?, ?)`, uuid.NewString(), name); err != nil {
		return "", fmt.Errorf("ensure %s %q: %w", table, name, err)
	}
	var id string
	if err := q.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id); err != nil {
		return "", fmt.Errorf("lookup %s %q: %w", table, name, err)
	}
	return id, nil
}

func attachLabels(ctx context.Context, q querier, cardID string, names []string) error {
	for _, name := range NormalizeLabels(names) {
		labelID, err := ensureRow(ctx, q, "labels", name)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO card_labels (card_id, label_id) VALUES (?, ?)`, cardID, labelID); err != nil {
			return fmt.Errorf("attach label %q: %w", name, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanCard(row scanner) (*Card, error) {
	var (
		c   Card
		due sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &due, &c.Closed, &c.List); err != nil {
		return nil, err
	}
	if due.Valid && due.String != "" {
		t, err := ParseISO(due.String)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
		c.Due = &t
	}
	c.URL = s.urlBase + "/" + c.ID
	return &c, nil
}

func (s *SQLite) getCard(ctx context.Context, q querier, id string) (*Card, error) {
	row := q.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.description, c.due, c.closed, l.name
		FROM cards c JOIN lists l ON l.id = c.list_id
		WHERE c.id = ?`, id)
	c, err := s.scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	labels, err := s.cardLabels(ctx, q, id)
	if err != nil {
		return nil, err
	}
	c.Labels = labels[id]
	return c, nil
}

// cardLabels returns label names per card id, for one card or all when
// cardID is empty.
func (s *SQLite) cardLabels(ctx context.Context, q querier, cardID string) (map[string][]string, error) {
	query := `SELECT cl.card_id, l.name FROM card_labels cl JOIN labels l ON l.id = cl.label_id`
	var args []any
	if cardID != "" {
		query += ` WHERE cl.card_id = ?`
		args = append(args, cardID)
	}
	query += ` ORDER BY l.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list card labels: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var card, name string
		if err := rows.Scan(&card, &name); err != nil {
			return nil, err
		}
		out[card] = append(out[card], name)
	}
	return out, rows.Err()
}

var _ Store = (*SQLite)(nil)
