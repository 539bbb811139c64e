package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"filippo.io/age"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/completion"
	"github.com/dohr-michael/secretary/internal/config"
	"github.com/dohr-michael/secretary/internal/dispatch"
	"github.com/dohr-michael/secretary/internal/extract"
	"github.com/dohr-michael/secretary/internal/followup"
	"github.com/dohr-michael/secretary/internal/models"
	"github.com/dohr-michael/secretary/internal/prompts"
	"github.com/dohr-michael/secretary/internal/secretary"
	"github.com/dohr-michael/secretary/internal/secrets"
	"github.com/dohr-michael/secretary/internal/sessions"
)

// app holds the wired components a command needs.
type app struct {
	cfg         *config.Config
	store       board.Store
	closer      io.Closer
	catalog     *prompts.Catalog
	client      *completion.Client
	extractor   *extract.Extractor
	transcripts *sessions.FileStore
	coordinator *secretary.Coordinator
}

func (a *app) Close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// loadConfig decrypts ENC[age:...] values in the environment, then loads the
// config file (defaults when missing) and decrypts its own secrets.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	identity, err := loadIdentity()
	if err != nil {
		return nil, err
	}
	if err := secrets.DecryptEnviron(identity); err != nil {
		return nil, err
	}

	path := cmd.String("config")
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config not found, using defaults", "path", path)
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}

	if err := secrets.DecryptConfig(cfg, identity); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadIdentity returns the age identity, or nil when no key was generated.
func loadIdentity() (*age.X25519Identity, error) {
	path := secrets.KeyPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return secrets.LoadIdentity(path)
}

// openBoard loads config and opens the task board only.
func openBoard(cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, closer, err := board.Open(cfg.Board)
	if err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}
	return &app{cfg: cfg, store: store, closer: closer}, nil
}

// newApp wires the full pipeline: model, prompts, board, extractor,
// orchestrator, follow-ups and the session coordinator.
func newApp(ctx context.Context, cmd *cli.Command) (*app, error) {
	a, err := openBoard(cmd)
	if err != nil {
		return nil, err
	}

	a.transcripts = sessions.NewFileStore(config.SessionsPath())
	if err := a.wireCompletion(ctx); err != nil {
		a.Close()
		return nil, err
	}

	orch := dispatch.New(a.client, a.store, a.catalog, a.extractor)
	a.coordinator = secretary.New(orch, followup.New(a.client, a.catalog), secretary.Options{
		HistoryTurns:    a.cfg.Conversation.HistoryTurns,
		ClearCommand:    a.cfg.Conversation.ClearCommand,
		DefaultTimezone: a.cfg.Conversation.DefaultTimezone,
		Transcripts:     a.transcripts,
	})
	return a, nil
}

func (a *app) wireCompletion(ctx context.Context) error {
	catalog, err := prompts.LoadCatalog(a.cfg.Prompts.File)
	if err != nil {
		return err
	}

	registry := models.NewRegistry(a.cfg.Models)
	chatModel, err := registry.Default(ctx)
	if err != nil {
		return fmt.Errorf("init default model: %w", err)
	}
	slog.Debug("model ready", "provider", registry.DefaultName(), "context_window", registry.DefaultContextWindow())

	usage := sessions.NewUsageTracker(a.transcripts)
	a.catalog = catalog
	a.client = completion.New(chatModel, completion.Options{
		Timeout:       a.cfg.Completion.Timeout.Duration(),
		Temperature:   float32(a.cfg.Completion.Temperature),
		ContextWindow: registry.DefaultContextWindow(),
		OnUsage: func(ctx context.Context, u completion.Usage) {
			usage.Record(ctx, u.Input, u.Output)
		},
	})
	a.extractor = extract.New(a.client, catalog)
	return nil
}
