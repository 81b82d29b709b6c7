// Command fintrack-chat is a terminal front end for the chat pipeline.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(applog.ComponentChat, false).Logger)
	// stdout belongs to the conversation
	logger := applog.New(applog.Config{
		Level:     slog.LevelWarn,
		Component: applog.ComponentChat,
		JSON:      cfg.LogJSON,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	res := cli.OpenBackend(ctx, logger.Logger, cfg, false)
	defer res.Close()
	svc := cli.BuildServices(ctx, logger.Logger, cfg, res)

	if err := svc.Chat.EnsureWelcome(ctx); err != nil {
		logger.Error("Failed to load chat", "error", err)
		os.Exit(1)
	}
	history, err := svc.Chat.History(ctx, 0)
	if err != nil {
		logger.Error("Failed to load chat history", "error", err)
		os.Exit(1)
	}
	for _, m := range history {
		printMessage(m.IsUser, m.Text)
	}

	if err := repl(ctx, svc, bufio.NewScanner(os.Stdin)); err != nil {
		logger.Error("Input error", "error", err)
		os.Exit(1)
	}
}

func repl(ctx context.Context, svc cli.Services, in *bufio.Scanner) error {
	for {
		fmt.Print("> ")
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		reply, err := svc.Chat.Send(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		printMessage(false, reply.Text)
	}
}

func printMessage(isUser bool, text string) {
	who := "fintrack"
	if isUser {
		who = "you"
	}
	fmt.Printf("%s: %s\n", who, text)
}
