package ui

import "fmt"

// Status symbols. Messages stay uncolored; the symbol carries the meaning.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
)

// Tree markers for matched rows and context rows.
const (
	SymbolMatch   = "●"
	SymbolContext = "○"
)

func withSymbol(symbol, msg string) string {
	return symbol + " " + msg
}

func Success(msg string) string { return withSymbol(SymbolSuccess, msg) }

func Error(msg string) string { return withSymbol(SymbolError, msg) }

func Warning(msg string) string { return withSymbol(SymbolWarning, msg) }

func Info(msg string) string { return withSymbol(SymbolInfo, msg) }

func Errorf(format string, args ...any) string { return Error(fmt.Sprintf(format, args...)) }

func Warningf(format string, args ...any) string { return Warning(fmt.Sprintf(format, args...)) }

// Header renders a section title.
func Header(msg string) string { return Bold.Render(msg) }

// Hint renders secondary text.
func Hint(msg string) string { return Muted.Render(msg) }

// Count renders "(1 match)" or "(3 matches)".
func Count(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return fmt.Sprintf("(%d %s)", n, noun)
}
