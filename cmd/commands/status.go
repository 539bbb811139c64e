package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/secretary/internal/config"
	"github.com/dohr-michael/secretary/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether `secretary serve` is running",
		Action: func(_ context.Context, _ *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*heartbeat.DefaultInterval)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			switch status {
			case heartbeat.StatusAlive:
				fmt.Printf("Secretary: ALIVE (PID %d, uptime %s)\n", hb.PID, hb.Uptime())
			case heartbeat.StatusStale:
				fmt.Printf("Secretary: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Println("Secretary: NOT RUNNING")
				return nil
			}

			fmt.Printf("  Gateway:    %s\n", hb.Gateway)
			fmt.Printf("  Board:      %s\n", hb.Board)
			fmt.Printf("  Transports: %s\n", strings.Join(hb.Transports, ", "))
			fmt.Printf("  Digests:    %t\n", hb.Digests)
			return nil
		},
	}
}
