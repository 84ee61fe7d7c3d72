// Package input turns raw terminal bytes into key and pointer events.
package input

import (
	"bufio"
	"strconv"
	"time"
	"unicode/utf8"
)

// escapeTimeout is how long a lone ESC waits for the rest of a sequence before
// it counts as the Escape key.
const escapeTimeout = 25 * time.Millisecond

// Kind classifies an Event.
type Kind int

const (
	KindKey         Kind = iota
	KindPointerDown      // Left button pressed
	KindPointerMove      // Mouse moved, with or without a button held
	KindPointerUp        // Button released
)

// Key identifies a key press. Printable characters arrive as KeyRune.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyInterrupt // Ctrl+C
)

// Event is one decoded input. Col and Row are 1-based terminal cells and are
// only set for pointer events.
type Event struct {
	Kind Kind
	Key  Key
	Rune rune
	Col  int
	Row  int
}

// Stream delivers input bytes via a channel and decodes them into events.
type Stream struct {
	ch      chan byte
	pending []byte
	escAt   time.Time // When a lone trailing ESC was first seen
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 256)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadEvents drains all available bytes (non-blocking) and returns the events
// they complete. Incomplete escape sequences wait for the next call.
func (s *Stream) ReadEvents() []Event {
	buf := s.pending
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	events, rest := Parse(buf)
	if len(rest) == 1 && rest[0] == '\x1b' {
		if s.escAt.IsZero() {
			s.escAt = time.Now()
		}
		if s.closed || time.Since(s.escAt) >= escapeTimeout {
			events = append(events, Event{Kind: KindKey, Key: KeyEscape})
			rest = nil
			s.escAt = time.Time{}
		}
	} else {
		s.escAt = time.Time{}
	}
	s.pending = append(s.pending[:0:0], rest...)
	return events
}

// Parse decodes as many events from buf as it can and returns the unconsumed
// tail, which holds a partial escape sequence or UTF-8 rune. A lone ESC at the
// end of buf is left unconsumed since more of its sequence may follow.
func Parse(buf []byte) ([]Event, []byte) {
	var events []Event
	i := 0
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == '\x1b':
			if i+1 >= len(buf) {
				return events, buf[i:]
			}
			ev, n, ok := parseEscape(buf[i:])
			if n == 0 {
				return events, buf[i:]
			}
			if ok {
				events = append(events, ev)
			}
			i += n
		case b == '\r' || b == '\n':
			events = append(events, Event{Kind: KindKey, Key: KeyEnter})
			i++
		case b == 0x7f || b == '\b':
			events = append(events, Event{Kind: KindKey, Key: KeyBackspace})
			i++
		case b == 0x03:
			events = append(events, Event{Kind: KindKey, Key: KeyInterrupt})
			i++
		case b < 0x20:
			i++
		default:
			if !utf8.FullRune(buf[i:]) {
				return events, buf[i:]
			}
			r, n := utf8.DecodeRune(buf[i:])
			if r != utf8.RuneError {
				events = append(events, Event{Kind: KindKey, Key: KeyRune, Rune: r})
			}
			i += n
		}
	}
	return events, nil
}

// parseEscape decodes one sequence starting with ESC. It returns the number
// of bytes consumed (0 if the sequence is incomplete) and ok=false for
// sequences that carry no event we use.
func parseEscape(buf []byte) (Event, int, bool) {
	switch buf[1] {
	case '[':
	case 'O':
		// SS3 arrows sent in application cursor mode.
		if len(buf) < 3 {
			return Event{}, 0, false
		}
		if k, ok := arrowKey(buf[2]); ok {
			return Event{Kind: KindKey, Key: k}, 3, true
		}
		return Event{}, 3, false
	case '\x1b':
		return Event{Kind: KindKey, Key: KeyEscape}, 1, true
	default:
		// Alt+key; treat as Escape followed by the key on the next pass.
		return Event{Kind: KindKey, Key: KeyEscape}, 1, true
	}

	// CSI: parameters and intermediates, then a final byte in 0x40..0x7e.
	end := -1
	for j := 2; j < len(buf); j++ {
		if buf[j] >= 0x40 && buf[j] <= 0x7e {
			end = j
			break
		}
	}
	if end < 0 {
		return Event{}, 0, false
	}
	n := end + 1
	params := buf[2:end]
	final := buf[end]

	if len(params) > 0 && params[0] == '<' && (final == 'M' || final == 'm') {
		ev, ok := parseSGRMouse(params[1:], final)
		return ev, n, ok
	}
	if len(params) == 0 {
		if k, ok := arrowKey(final); ok {
			return Event{Kind: KindKey, Key: k}, n, true
		}
	}
	return Event{}, n, false
}

func arrowKey(b byte) (Key, bool) {
	switch b {
	case 'A':
		return KeyUp, true
	case 'B':
		return KeyDown, true
	case 'C':
		return KeyRight, true
	case 'D':
		return KeyLeft, true
	}
	return 0, false
}

// parseSGRMouse decodes "b;x;y" from an SGR (1006) mouse report.
func parseSGRMouse(params []byte, final byte) (Event, bool) {
	var fields [3]int
	idx := 0
	start := 0
	for j := 0; j <= len(params); j++ {
		if j < len(params) && params[j] != ';' {
			continue
		}
		if idx >= len(fields) {
			return Event{}, false
		}
		v, err := strconv.Atoi(string(params[start:j]))
		if err != nil {
			return Event{}, false
		}
		fields[idx] = v
		idx++
		start = j + 1
	}
	if idx != len(fields) {
		return Event{}, false
	}

	button, col, row := fields[0], fields[1], fields[2]
	ev := Event{Col: col, Row: row}
	switch {
	case button&64 != 0:
		// Wheel
		return Event{}, false
	case final == 'm':
		ev.Kind = KindPointerUp
	case button&32 != 0:
		ev.Kind = KindPointerMove
	case button&3 == 0:
		ev.Kind = KindPointerDown
	default:
		return Event{}, false
	}
	return ev, true
}
