// Package loop drives a game in a terminal: input, update and draw at a fixed
// frame rate.
package loop

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/tomz197/handsoff/internal/draw"
	"github.com/tomz197/handsoff/internal/game"
	"github.com/tomz197/handsoff/internal/input"
)

// Options configures a Client.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	// Renderer styles text for the output. Nil means 256 colors.
	Renderer *lipgloss.Renderer
	Logger   *log.Logger
	// IdleTimeout disconnects a player who sends no input for this long.
	// Zero disables it.
	IdleTimeout time.Duration
	// ShutdownNotice is how long the shutdown screen shows after the context
	// is cancelled. Zero exits at once.
	ShutdownNotice time.Duration
	// WorldWidth is the logical width of the field. The height follows the
	// terminal's aspect ratio.
	WorldWidth float64
}

// Client runs one game on one terminal.
type Client struct {
	game         *game.Game
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	styles       styles
	logger       *log.Logger
	opts         Options

	running       bool
	lastInput     time.Time
	inactive      bool
	shuttingDown  bool
	shutdownTimer time.Duration
	offsetCol     int
	offsetRow     int
	now           time.Time // Start of the current frame
}

// Run plays g on the terminal behind r and w until the player quits, the
// input ends, or ctx is cancelled and the shutdown notice has been shown.
func Run(ctx context.Context, g *game.Game, r *bufio.Reader, w io.Writer, opts Options) error {
	return NewClient(g, r, w, opts).Run(ctx)
}

// NewClient prepares a client. Input is read from r in the background.
func NewClient(g *game.Game, r *bufio.Reader, w io.Writer, opts Options) *Client {
	if opts.TermSizeFunc == nil {
		opts.TermSizeFunc = draw.DefaultTermSizeFunc
	}
	if opts.WorldWidth <= 0 {
		opts.WorldWidth = game.DefaultTuning().WorldWidth
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = lipgloss.NewRenderer(w)
		renderer.SetColorProfile(termenv.ANSI256)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	termWidth, termHeight, _ := opts.TermSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	lw, lh := logicalSize(opts.WorldWidth, renderWidth, renderHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, lw, lh)
	canvas.SetOffset(offsetCol, offsetRow)
	g.OnResize(lw, lh)

	return &Client{
		game:         g,
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		inputStream:  input.StartStream(r),
		termSizeFunc: opts.TermSizeFunc,
		styles:       newStyles(renderer),
		logger:       logger,
		opts:         opts,
		running:      true,
		lastInput:    time.Now(),
		offsetCol:    offsetCol,
		offsetRow:    offsetRow,
	}
}

// Run starts the client loop. Blocks until the client disconnects.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	c.game.Load()

	lastTime := time.Now()
	for c.running {
		frameStart := time.Now()
		delta := min(frameStart.Sub(lastTime), maxFrameDelta)
		lastTime = frameStart
		c.now = frameStart

		// ===== INPUT PHASE =====
		c.processInput()

		// ===== UPDATE PHASE =====
		c.checkShutdown(ctx)
		c.updateScreen()
		if c.shuttingDown {
			c.shutdownTimer -= delta
			if c.shutdownTimer <= 0 {
				c.running = false
			}
		} else {
			c.game.Update(delta)
		}

		// ===== DRAW PHASE =====
		if err := c.drawFrame(); err != nil {
			return err
		}

		// ===== FRAME TIMING =====
		elapsed := time.Since(frameStart)
		if elapsed < TargetFrameTime {
			time.Sleep(TargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// processInput feeds pending input events to the game.
func (c *Client) processInput() {
	events := c.inputStream.ReadEvents()
	if c.inputStream.Closed() {
		c.running = false
	}

	if len(events) > 0 {
		c.lastInput = c.now
		c.inactive = false
	} else if c.opts.IdleTimeout > 0 {
		idle := c.now.Sub(c.lastInput)
		if idle > c.opts.IdleTimeout {
			c.logger.Info("disconnecting idle player", "idle", idle.Round(time.Second))
			c.running = false
		} else if idle > c.opts.IdleTimeout-idleWarning {
			c.inactive = true
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case input.KindKey:
			if c.isQuit(ev) {
				c.running = false
				return
			}
			if !c.shuttingDown {
				c.game.OnKey(ev.Key, ev.Rune)
			}
		case input.KindPointerDown:
			if !c.shuttingDown {
				x, y := c.canvas.TerminalToLogical(ev.Col, ev.Row)
				c.game.OnPointerDown(x, y)
			}
		case input.KindPointerMove:
			if !c.shuttingDown {
				x, y := c.canvas.TerminalToLogical(ev.Col, ev.Row)
				c.game.OnPointerMove(x, y)
			}
		}
	}
}

// isQuit reports whether ev ends the session. Q types a letter while the
// player is entering a name.
func (c *Client) isQuit(ev input.Event) bool {
	if ev.Key == input.KeyInterrupt {
		return true
	}
	if ev.Key != input.KeyRune || (ev.Rune != 'q' && ev.Rune != 'Q') {
		return false
	}
	return c.shuttingDown || c.game.Screen() != game.ScreenNameInput
}

// checkShutdown switches to the shutdown screen once ctx is done.
func (c *Client) checkShutdown(ctx context.Context) {
	if c.shuttingDown {
		return
	}
	select {
	case <-ctx.Done():
	default:
		return
	}
	if c.opts.ShutdownNotice <= 0 {
		c.running = false
		return
	}
	c.shuttingDown = true
	c.shutdownTimer = c.opts.ShutdownNotice
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal and resizes the play field to
// the new aspect ratio.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	if renderWidth == c.canvas.TerminalWidth() && renderHeight == c.canvas.TerminalHeight() &&
		offsetCol == c.offsetCol && offsetRow == c.offsetRow {
		return
	}

	draw.ClearScreen(c.writer)
	c.offsetCol, c.offsetRow = offsetCol, offsetRow
	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)

	lw, lh := logicalSize(c.opts.WorldWidth, renderWidth, renderHeight)
	c.canvas.SetLogicalSize(lw, lh)
	c.game.OnResize(lw, lh)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = max(min(termWidth, MaxTermWidth), 1)
	renderHeight = max(min(termHeight, MaxTermHeight), 1)
	offsetCol = max((termWidth-renderWidth)/2, 0)
	offsetRow = max((termHeight-renderHeight)/2, 0)
	return
}

// logicalSize keeps the field width fixed and derives a height that makes
// half-block pixels square.
func logicalSize(width float64, termWidth, termHeight int) (float64, float64) {
	return width, width * float64(termHeight*2) / float64(termWidth)
}
