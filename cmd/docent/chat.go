package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/docent/core"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive REPL against the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// One session per REPL process so follow-up questions see the
			// earlier exchange.
			sessionID := core.NewID()

			fmt.Println("docent ready. Type 'exit' or 'quit' to leave.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "exit" || line == "quit" {
					break
				}

				if err := runExchange(ctx, a, sessionID, line); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			}

			return scanner.Err()
		},
	}
}

// runExchange sends one question, streams the model output to stdout and
// reports the terminal exit reason.
func runExchange(ctx context.Context, a *app, sessionID, question string) error {
	_, eventsCh, errorsCh, err := a.bot.Ask(ctx, sessionID, question)
	if err != nil {
		return err
	}

	var (
		final   *core.FinalState
		printed bool
	)
	for event := range eventsCh {
		switch event.Kind {
		case core.EventToken:
			fmt.Print(event.Delta)
			printed = true
		case core.EventToolStart:
			if event.Tool != nil {
				fmt.Printf("[searching: %s]\n", event.Tool.Args)
			}
		case core.EventFinal:
			if event.Final != nil {
				snapshot := *event.Final
				final = &snapshot
			}
		}
	}
	if printed {
		fmt.Println()
	}

	if err := <-errorsCh; err != nil {
		return err
	}

	if final == nil {
		return fmt.Errorf("run produced no terminal state")
	}
	if !printed && final.Answer != "" {
		fmt.Println(final.Answer)
	}
	fmt.Printf("[exit_reason=%s]\n", final.ExitReason)

	return nil
}
