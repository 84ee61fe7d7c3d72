package loop

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tomz197/handsoff/internal/game"
	"github.com/tomz197/handsoff/internal/object"
)

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	text     lipgloss.Style
	dim      lipgloss.Style
	prompt   lipgloss.Style
	hud      lipgloss.Style
	warning  lipgloss.Style
	err      lipgloss.Style
	input    lipgloss.Style
	ranks    [3]lipgloss.Style // Gold, silver, bronze
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		subtitle: r.NewStyle().Foreground(lipgloss.Color("219")).Italic(true),
		text:     r.NewStyle().Foreground(lipgloss.Color("252")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("244")),
		prompt:   r.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
		hud:      r.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("236")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		err:      r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		input:    r.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("238")).Padding(0, 1),
		ranks: [3]lipgloss.Style{
			r.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
			r.NewStyle().Foreground(lipgloss.Color("250")).Bold(true),
			r.NewStyle().Foreground(lipgloss.Color("173")).Bold(true),
		},
	}
}

// figlet "small"
var titleArt = []string{
	` _  _   _   _  _ ___  ___    ___  ___ ___ `,
	`| || | /_\ | \| |   \/ __|  / _ \| __| __|`,
	`| __ |/ _ \| .' | |) \__ \ | (_) | _|| _| `,
	`|_||_/_/ \_\_|\_|___/|___/  \___/|_| |_|  `,
}

var gameOverArt = []string{
	`  ___   _   __  __ ___    _____   _____ ___  `,
	` / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	`| (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	` \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	snap := c.game.Snapshot()
	cw := c.chunkWriter

	// Full clear on every frame; text overlays move between screens.
	cw.WriteString("\033[H\033[2J")
	c.canvas.Clear()

	if snap.Screen == game.ScreenPlaying || snap.Screen == game.ScreenGameOver {
		ctx := object.DrawContext{Canvas: c.canvas}
		target := snap.Target
		if err := target.Draw(ctx); err != nil {
			return err
		}
		for i := range snap.Hands {
			if err := snap.Hands[i].Draw(ctx); err != nil {
				return err
			}
		}
	}
	if err := c.canvas.Render(cw); err != nil {
		return err
	}

	c.drawUI(snap)
	return cw.Flush()
}

// drawUI draws the text overlay for the active screen.
func (c *Client) drawUI(snap game.Snapshot) {
	centerY := c.canvas.TerminalHeight() / 2

	if c.shuttingDown {
		c.drawShutdownScreen(centerY)
		return
	}
	if c.inactive {
		c.drawInactivityScreen(centerY)
		return
	}

	switch snap.Screen {
	case game.ScreenLoading:
		c.drawLoadingScreen(centerY)
	case game.ScreenTitle:
		c.drawTitleScreen(centerY, snap)
	case game.ScreenInstructions:
		c.drawInstructionsScreen(centerY, snap)
	case game.ScreenPlaying:
		c.drawPlayingHUD(snap)
	case game.ScreenGameOver:
		c.drawPlayingHUD(snap)
		c.drawGameOverScreen(centerY, snap)
	case game.ScreenNameInput:
		c.drawNameInputScreen(centerY, snap)
	case game.ScreenLeaderboard:
		c.drawLeaderboardScreen(centerY, snap)
	case game.ScreenError:
		c.drawErrorScreen(centerY, snap)
	}
}

// writeCentered writes s centered horizontally on row. Width ignores ANSI styling.
func (c *Client) writeCentered(row int, s string) {
	col := (c.canvas.TerminalWidth()-lipgloss.Width(s))/2 + 1
	c.chunkWriter.WriteAt(col, row, s)
}

func (c *Client) writeArt(startRow int, art []string, style lipgloss.Style) int {
	width := 0
	for _, line := range art {
		width = max(width, len(line))
	}
	col := (c.canvas.TerminalWidth()-width)/2 + 1
	for i, line := range art {
		c.chunkWriter.WriteAt(col, startRow+i, style.Render(line))
	}
	return startRow + len(art)
}

func (c *Client) blinkOn() bool {
	return c.now.UnixMilli()/blinkPeriod.Milliseconds()%2 == 0
}

func (c *Client) drawLoadingScreen(centerY int) {
	dots := strings.Repeat(".", int(c.now.UnixMilli()/400%4))
	c.writeCentered(centerY, c.styles.text.Render(fmt.Sprintf("Loading%-3s", dots)))
}

func (c *Client) drawTitleScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	row := c.writeArt(centerY-8, titleArt, s.title)

	c.writeCentered(row+1, s.subtitle.Render("~ keep the grabby hands off the target ~"))

	if snap.SignedIn && snap.PlayerName != "" {
		c.writeCentered(row+3, s.dim.Render("Playing as "+snap.PlayerName))
	}

	controls := []string{
		"SPACE / click  . . .  Start",
		"I  . . . . . .  Instructions",
		"L  . . . . . . .  High scores",
		"Q  . . . . . . . . . . .  Quit",
	}
	for i, line := range controls {
		c.writeCentered(row+5+i, s.text.Render(line))
	}

	if c.blinkOn() {
		c.writeCentered(row+6+len(controls), s.prompt.Render(">>  Press SPACE to Start  <<"))
	}
}

func (c *Client) drawInstructionsScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	c.writeCentered(centerY-7, s.title.Render("HOW TO PLAY"))

	move := "Click anywhere to move the target there."
	if snap.Control == game.ControlFollow {
		move = "Move the mouse and the target follows."
	}
	lines := []string{
		"Hands drift around the field and grab at the target.",
		move,
		"Arrow keys nudge the target a little at a time.",
		"",
		"More hands join the longer you last,",
		"and they lunge more often as the level rises.",
		"",
		"One touch and the run is over. Survive as long as you can!",
	}
	for i, line := range lines {
		c.writeCentered(centerY-5+i, s.text.Render(line))
	}

	c.writeCentered(centerY+5, s.dim.Render("ESC to go back"))
	if c.blinkOn() {
		c.writeCentered(centerY+7, s.prompt.Render(">>  Press SPACE to Start  <<"))
	}
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so the bar keeps its size as values grow.
func (c *Client) drawPlayingHUD(snap game.Snapshot) {
	s := c.styles
	cw := c.chunkWriter

	timeText := s.hud.Render(fmt.Sprintf(" Time: %-9s", snap.Score))
	cw.WriteAt(2, 1, timeText)

	levelText := s.hud.Render(fmt.Sprintf(" Level: %-3d Hands: %-3d", snap.Level, len(snap.Hands)))
	cw.WriteAt(c.canvas.TerminalWidth()-lipgloss.Width(levelText), 1, levelText)
}

func (c *Client) drawGameOverScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	row := c.writeArt(centerY-5, gameOverArt, s.err)

	c.writeCentered(row+1, s.text.Render(fmt.Sprintf("You survived %s", snap.Score)))
	if snap.Eligible {
		c.writeCentered(row+3, s.prompt.Render("New high score!"))
	}
}

func (c *Client) drawNameInputScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	c.writeCentered(centerY-5, s.prompt.Render("NEW HIGH SCORE"))
	c.writeCentered(centerY-3, s.text.Render(fmt.Sprintf("You survived %s", snap.Score)))
	c.writeCentered(centerY-1, s.text.Render("Enter your name:"))

	name := snap.Name
	if !snap.Submitting && len([]rune(name)) < snap.NameMax && c.blinkOn() {
		name += "_"
	}
	field := fmt.Sprintf("%-*s", snap.NameMax, name)
	c.writeCentered(centerY+1, s.input.Render(field))

	if snap.Message != "" {
		style := s.err
		if snap.Submitting {
			style = s.dim
		}
		c.writeCentered(centerY+3, style.Render(snap.Message))
	}
	c.writeCentered(centerY+5, s.dim.Render("ENTER to save   ESC to skip"))
}

func (c *Client) drawLeaderboardScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	top := centerY - 8
	c.writeCentered(top, s.title.Render("HIGH SCORES"))

	if len(snap.HighScores) == 0 {
		c.writeCentered(top+3, s.dim.Render("No scores yet. Be the first!"))
	}
	for i, e := range snap.HighScores {
		line := fmt.Sprintf("%2d. %-10s %10s", i+1, e.PlayerName, e.Score)
		style := s.text
		if i < len(s.ranks) {
			style = s.ranks[i]
		}
		c.writeCentered(top+2+i, style.Render(line))
	}

	bottom := top + 3 + max(len(snap.HighScores), 1)
	if snap.Elapsed > 0 {
		c.writeCentered(bottom+1, s.text.Render(fmt.Sprintf("Your time: %s", snap.Score)))
	}
	if c.blinkOn() {
		c.writeCentered(bottom+3, s.prompt.Render(">>  Press SPACE to Play Again  <<"))
	}
	c.writeCentered(bottom+4, s.dim.Render("ESC for title   Q to quit"))
}

func (c *Client) drawErrorScreen(centerY int, snap game.Snapshot) {
	s := c.styles
	c.writeCentered(centerY-2, s.err.Render("SOMETHING WENT WRONG"))
	if snap.Err != nil {
		c.writeCentered(centerY, s.text.Render(snap.Err.Error()))
	}
	c.writeCentered(centerY+2, s.dim.Render("Please reconnect to try again. Press Q to quit."))
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerY int) {
	s := c.styles
	c.writeCentered(centerY-2, s.warning.Render("INACTIVITY WARNING"))

	remaining := c.opts.IdleTimeout - c.now.Sub(c.lastInput)
	msg := fmt.Sprintf("You have been inactive for too long. You will be disconnected in %d seconds.",
		int(remaining.Seconds()))
	c.writeCentered(centerY, s.text.Render(msg))
	c.writeCentered(centerY+2, s.dim.Render("Press any key to continue"))
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerY int) {
	s := c.styles
	c.writeCentered(centerY-3, s.warning.Render("SERVER SHUTTING DOWN"))
	c.writeCentered(centerY-1, s.text.Render("The server is restarting for maintenance."))
	c.writeCentered(centerY, s.text.Render("Please reconnect in a moment."))

	remaining := int(c.shutdownTimer.Seconds()) + 1
	c.writeCentered(centerY+2, s.text.Render(fmt.Sprintf("Disconnecting in %d seconds...", remaining)))
	c.writeCentered(centerY+4, s.dim.Render("Press Q to disconnect now"))
}
