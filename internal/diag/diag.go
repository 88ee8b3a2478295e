package diag

import (
	"fmt"
	"strings"
)

// CodeError is a diagnostic anchored in source text. Line and Column are
// 1-based; zero means unknown, in which case Context (a source fragment)
// may still be located with LocateContext.
type CodeError struct {
	Message string
	Context string
	Line    int
	Column  int
}

func (e CodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s (at `%s`)", e.Message, e.Context)
	}
	return e.Message
}

// Position resolves the error's line and column, falling back to locating
// its context in source.
func (e CodeError) Position(source string) (line int, col int, ok bool) {
	if e.Line > 0 {
		col = e.Column
		if col < 1 {
			col = 1
		}
		return e.Line, col, true
	}
	return LocateContext(source, e.Context)
}

// Render formats err the way the CLI prints it:
//
//	Type error: unknown name y
//	  --> prog.py:3:7
//	   |
//	 3 | print(y)
//	   |       ^
func Render(file string, source string, kind string, err CodeError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error: %s\n", kind, err.Message)
	line, col, ok := err.Position(source)
	if !ok {
		if err.Context != "" {
			fmt.Fprintf(&b, "  context: %s\n", err.Context)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", file, line, col)
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return b.String()
	}
	text := strings.TrimRight(lines[line-1], "\r")
	gutter := len(fmt.Sprint(line))
	pad := strings.Repeat(" ", gutter)
	fmt.Fprintf(&b, " %s |\n", pad)
	fmt.Fprintf(&b, " %d | %s\n", line, text)
	caret := col - 1
	if caret > len(text) {
		caret = len(text)
	}
	fmt.Fprintf(&b, " %s | %s^\n", pad, strings.Repeat(" ", caret))
	return b.String()
}

func LocateContext(source string, context string) (line int, col int, ok bool) {
	ctx := strings.TrimSpace(context)
	if ctx == "" {
		return 0, 0, false
	}
	lines := strings.Split(source, "\n")
	normalize := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "\t", "")
		return s
	}
	normalizedCtx := normalize(strings.Trim(ctx, "`"))

	matchLine := -1
	for i, ln := range lines {
		if normalize(ln) == normalizedCtx {
			if matchLine != -1 {
				matchLine = -2
				break
			}
			matchLine = i
		}
	}
	if matchLine >= 0 {
		ln := lines[matchLine]
		col := strings.Index(ln, strings.TrimSpace(strings.Trim(ctx, "`")))
		if col < 0 {
			col = strings.Index(ln, "return")
		}
		if col < 0 {
			col = 0
		}
		return matchLine + 1, col + 1, true
	}

	candidates := []string{ctx, strings.Trim(ctx, "`")}
	bestLine := -1
	bestCol := -1
	for i, ln := range lines {
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if idx := strings.Index(ln, c); idx >= 0 {
				if bestLine != -1 {
					return 0, 0, false
				}
				bestLine = i + 1
				bestCol = idx + 1
			}
		}
	}
	if bestLine != -1 {
		return bestLine, bestCol, true
	}
	return 0, 0, false
}
