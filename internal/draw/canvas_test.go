package draw

import (
	"bytes"
	"strings"
	"testing"
)

func TestCanvasRenderHalfBlocks(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.SetFloat(0, 0)
	c.SetFloat(0, 1)
	c.SetFloat(2, 1)

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\033[1;1H"+string(BlockFull)) {
		t.Fatalf("expected full block at 1;1, got %q", out)
	}
	if !strings.Contains(out, "\033[1;3H"+string(BlockLowerHalf)) {
		t.Fatalf("expected lower half block at 1;3, got %q", out)
	}
}

func TestCanvasTerminalRoundTrip(t *testing.T) {
	c := NewScaledCanvas(80, 24, 800, 600)
	x, y := c.TerminalToLogical(41, 13)
	col, row := c.LogicalToTerminal(x, y)
	if col != 41 || row != 13 {
		t.Fatalf("round trip = (%d,%d), want (41,13)", col, row)
	}
}

func TestCanvasTerminalToLogicalOffset(t *testing.T) {
	c := NewScaledCanvas(80, 24, 800, 600)
	c.SetOffset(10, 2)
	x, _ := c.TerminalToLogical(11, 3)
	if x < 0 || x > 10 {
		t.Fatalf("expected x near left edge, got %f", x)
	}
}

func TestChunkWriterFlush(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 2, 1)
	cw.WriteAt(1, 1, "hi")
	if err := cw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := out.String(); got != "\033[2;3Hhi" {
		t.Fatalf("flush wrote %q", got)
	}
}
