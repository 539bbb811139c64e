package board

import (
	"fmt"
	"io"

	"github.com/dohr-michael/secretary/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Store selected by config. The returned closer releases
// backend resources.
func Open(cfg config.BoardConfig) (Store, io.Closer, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := OpenSQLite(cfg.SQLite.Path, cfg.SQLite.URLBase)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "trello":
		if cfg.Trello.APIKey == "" || cfg.Trello.Token == "" {
			return nil, nil, fmt.Errorf("trello board needs api_key and token")
		}
		return NewTrello(TrelloConfig{
			APIKey:    cfg.Trello.APIKey,
			Token:     cfg.Trello.Token,
			BoardName: cfg.Trello.BoardName,
			BaseURL:   cfg.Trello.BaseURL,
		}), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown board driver: %s", cfg.Driver)
	}
}
