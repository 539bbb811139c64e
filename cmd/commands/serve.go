package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/chat"
	"github.com/dohr-michael/secretary/internal/config"
	"github.com/dohr-michael/secretary/internal/digest"
	"github.com/dohr-michael/secretary/internal/gateway"
	"github.com/dohr-michael/secretary/internal/heartbeat"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the secretary: gateway, Slack transport and digests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.BoolFlag{
				Name:  "no-slack",
				Usage: "Do not connect to Slack even when tokens are configured",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	server := gateway.NewServer(a.coordinator, a.store, a.transcripts, cfg.Gateway.Host, cfg.Gateway.Port)
	transports := []string{"gateway"}
	errCh := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()

	posters := []digest.Poster{server.Hub()}
	if cfg.Slack.Enabled() && !cmd.Bool("no-slack") {
		slack := chat.NewSlack(cfg.Slack.BotToken, cfg.Slack.AppToken, a.coordinator)
		transports = append(transports, "slack")
		if cfg.Slack.DigestChannel != "" {
			channel := cfg.Slack.DigestChannel
			posters = append(posters, digest.PosterFunc(func(ctx context.Context, text string) error {
				return slack.Post(ctx, channel, text)
			}))
		}
		go func() {
			if err := slack.Run(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("slack: %w", err)
			}
		}()
	}

	if cfg.Digest.Enabled {
		scheduler, err := digest.New(cfg.Digest, a.store, posters...)
		if err != nil {
			return err
		}
		go scheduler.Run(ctx)
	}

	go heartbeat.NewWriter(config.HeartbeatPath(), heartbeat.Info{
		Gateway:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Board:      cfg.Board.Driver,
		Transports: transports,
		Digests:    cfg.Digest.Enabled,
	}).Run(ctx)

	// Wait for signal or error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err = <-errCh:
		slog.Error("transport stopped", "error", err)
	}
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}
