package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

// DefaultWidth is used when stdout is not a terminal and COLUMNS is unset.
const DefaultWidth = 120

// minContentWidth keeps layouts readable on very narrow terminals.
const minContentWidth = 40

// DisplayContext describes where output is going.
type DisplayContext struct {
	Width int
	IsTTY bool
}

// NewDisplayContext inspects stdout. COLUMNS, when set, wins over the
// detected terminal size.
func NewDisplayContext() *DisplayContext {
	return detectDisplay(os.Stdout.Fd(), os.Getenv("COLUMNS"))
}

func detectDisplay(fd uintptr, columns string) *DisplayContext {
	d := &DisplayContext{
		Width: DefaultWidth,
		IsTTY: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(columns)); err == nil && n > 0 {
		d.Width = n
		return d
	}
	if d.IsTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.Width = w
		}
	}
	return d
}

// FixedDisplay returns a terminal context of the given width.
func FixedDisplay(width int) *DisplayContext {
	return &DisplayContext{Width: width, IsTTY: true}
}

// ContentWidth is the width left after indent columns.
func (d *DisplayContext) ContentWidth(indent int) int {
	if w := d.Width - indent; w > minContentWidth {
		return w
	}
	return minContentWidth
}
