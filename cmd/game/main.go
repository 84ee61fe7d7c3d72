package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/tomz197/handsoff/internal/config"
	"github.com/tomz197/handsoff/internal/game"
	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/loop"
	"github.com/tomz197/handsoff/internal/names"
	"golang.org/x/term"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the game, so logs only go to a file when asked.
	var logOut io.Writer = io.Discard
	if path := config.GetEnv("LOG_FILE", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut, "handsoff")

	tuning, err := game.LoadTuning(config.GetEnv("HANDSOFF_TUNING", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid tuning: %v\n", err)
		os.Exit(1)
	}
	tuning.GameID = config.GetEnv("GAME_ID", tuning.GameID)

	store, err := leaderboard.Open(config.GetEnv("SCORES_URL", ""), config.GetEnv("SCORES_DIR", "scores"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open scores: %v\n", err)
		os.Exit(1)
	}

	session, err := localSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	g := game.New(game.Options{
		Tuning:    tuning,
		Service:   store,
		Auth:      leaderboard.StaticAuth{Session: session},
		Validator: names.NewValidator(),
		Logger:    logger,
	})

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(os.Stdin)
	err = loop.Run(ctx, g, reader, os.Stdout, loop.Options{
		Renderer:   lipgloss.NewRenderer(os.Stdout),
		Logger:     logger,
		WorldWidth: tuning.WorldWidth,
	})
	if err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// localSession names the player from PLAYER_NAME (or $USER) and uses
// PLAYER_ID when set so scores stay attributed across runs.
func localSession() (*leaderboard.Session, error) {
	name := config.GetEnv("PLAYER_NAME", os.Getenv("USER"))
	if id := config.GetEnv("PLAYER_ID", ""); id != "" {
		return leaderboard.ParseSession(name, id)
	}
	return leaderboard.AnonymousSession(name), nil
}
