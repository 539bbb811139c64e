// Command task_flow exercises the task lifecycle against a running gateway.
//
// It clears a scratch session, asks the secretary to track a request, checks
// that a card appears on the board, then asks for it to be marked done and
// checks that the card is gone.
//
// Usage: task_flow -gateway ws://127.0.0.1:PORT/api/ws
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	wsclient "github.com/dohr-michael/secretary/clients/ws"
	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/gateway/ws"
)

func main() {
	gatewayURL := flag.String("gateway", "ws://127.0.0.1:18421/api/ws", "Gateway WS URL")
	session := flag.String("session", "e2e", "Gateway session id")
	keyword := flag.String("keyword", "invoice", "Word expected in the created card name")
	timeout := flag.Duration("timeout", 3*time.Minute, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *gatewayURL, *session, *keyword); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, gatewayURL, session, keyword string) error {
	client, err := wsclient.Dial(ctx, gatewayURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	ask := func(text string) ([]string, error) {
		return client.Ask(ws.SendMessageParams{SessionID: session, Author: "E2E", Text: text, Timezone: "UTC"})
	}

	// Step 1: start from a blank slate
	if _, err := ask("clear"); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	before, err := client.Tasks("UTC")
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	fmt.Printf("CHECK board has %d open tasks\n", len(before))

	// Step 2: ask for a task
	replies, err := ask("Please make a task for me to send the " + keyword + " to Sam by Friday at 5pm.")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Printf("CHECK %d replies received\n", len(replies))
	if !anyContains(replies, "I created") {
		return fmt.Errorf("no creation narrated in replies: %q", replies)
	}

	after, err := client.Tasks("UTC")
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	card, ok := findCard(after, keyword)
	if !ok {
		return fmt.Errorf("no card mentioning %q on the board", keyword)
	}
	fmt.Printf("CHECK card created: %s (%s)\n", card.Name, card.URL)

	// Step 3: complete it
	replies, err = ask("The " + keyword + " has been sent, you can mark that task as done.")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if !anyContains(replies, "marked") {
		return fmt.Errorf("no completion narrated in replies: %q", replies)
	}
	final, err := client.Tasks("UTC")
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	for _, v := range final {
		if v.ID == card.ID {
			return fmt.Errorf("card %s is still open", card.ID)
		}
	}
	fmt.Println("CHECK card completed")

	fmt.Println("CHECK all flow checks passed")
	return nil
}

func anyContains(replies []string, substr string) bool {
	for _, r := range replies {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func findCard(views []board.TaskView, keyword string) (board.TaskView, bool) {
	for _, v := range views {
		if strings.Contains(strings.ToLower(v.Name), strings.ToLower(keyword)) {
			return v, true
		}
	}
	return board.TaskView{}, false
}
