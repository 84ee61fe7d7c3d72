package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/tomz197/handsoff/internal/config"
	"github.com/tomz197/handsoff/internal/draw"
	"github.com/tomz197/handsoff/internal/game"
	"github.com/tomz197/handsoff/internal/leaderboard"
	"github.com/tomz197/handsoff/internal/loop"
	"github.com/tomz197/handsoff/internal/names"
	gossh "golang.org/x/crypto/ssh"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"

	// shutdownGrace is how long players get to see the shutdown notice and leave.
	shutdownGrace = 15 * time.Second
)

// server holds what every session shares.
type server struct {
	tuning   game.Tuning
	store    leaderboard.Service
	logger   *log.Logger
	ctx      context.Context // Cancelled when the server starts shutting down
	sessions sync.WaitGroup
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, "ssh")

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("failed to get working directory", "err", workErr)
	}
	logger.Info("SSH config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "workingDir", workingDir)

	tuning, err := game.LoadTuning(config.GetEnv("HANDSOFF_TUNING", ""))
	if err != nil {
		logger.Fatal("invalid tuning", "err", err)
	}
	tuning.GameID = config.GetEnv("GAME_ID", tuning.GameID)

	store, err := leaderboard.Open(config.GetEnv("SCORES_URL", ""), config.GetEnv("SCORES_DIR", "scores"))
	if err != nil {
		logger.Fatal("failed to open scores", "err", err)
	}

	ctx, cancelSessions := context.WithCancel(context.Background())
	srv := &server{tuning: tuning, store: store, logger: logger, ctx: ctx}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		// Any key or none: keys only serve to recognise returning players.
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
		wish.WithMiddleware(
			srv.gameMiddleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Starting SSH server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("Shutting down server...")

	// Tell connected players and give them time to leave.
	cancelSessions()
	if !srv.waitSessions(shutdownGrace) {
		logger.Warn("sessions still open after grace period")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// gameMiddleware runs an independent game for each SSH session.
func (srv *server) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		srv.sessions.Add(1)
		defer srv.sessions.Done()

		player := playerSession(sess)
		logger := srv.logger.With("user", sess.User(), "player", player.UserID)
		logger.Info("New game session", "terminal", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		g := game.New(game.Options{
			Tuning:    srv.tuning,
			Service:   srv.store,
			Auth:      leaderboard.StaticAuth{Session: player},
			Validator: names.NewValidator(),
			Logger:    logger,
		})

		err := loop.Run(srv.ctx, g, bufio.NewReader(sess), sess, loop.Options{
			TermSizeFunc:   sizeTracker.getSize,
			Logger:         logger,
			IdleTimeout:    loop.DefaultIdleTimeout,
			ShutdownNotice: loop.DefaultShutdownNotice,
			WorldWidth:     srv.tuning.WorldWidth,
		})
		if err != nil {
			logger.Error("Game error", "err", err)
		}

		logger.Info("Session ended")
		next(sess)
	}
}

// waitSessions waits for running sessions to end and reports whether they did
// within timeout.
func (srv *server) waitSessions(timeout time.Duration) bool {
	finished := make(chan struct{})
	go func() {
		srv.sessions.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

// playerSession gives key holders a stable player id and everyone else a
// fresh one.
func playerSession(sess ssh.Session) *leaderboard.Session {
	if key := sess.PublicKey(); key != nil {
		return leaderboard.DerivedSession(sess.User(), key.Marshal())
	}
	return leaderboard.AnonymousSession(sess.User())
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
