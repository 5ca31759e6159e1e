package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/page"
	"bananalab/internal/store"

	"golang.org/x/term"
)

// Default timeout for store operations
const defaultTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	command := os.Args[1]
	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := newPrinter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))

	var code int
	switch command {
	case "validate":
		code = withPages(arg, func(pages []*page.Page) int { return validate(out, pages) })
	case "assets":
		code = withPages(arg, func(pages []*page.Page) int { listAssets(out, pages); return 0 })
	case "status":
		if arg == "" {
			arg = os.Getenv("DATABASE_PATH")
		}
		code = status(ctx, out, arg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(os.Stderr)
		code = 2
	}
	os.Exit(code)
}

func withPages(path string, fn func([]*page.Page) int) int {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: missing page document path")
		return 2
	}
	pages, err := page.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return fn(pages)
}

// sanitizeCommand replaces anything outside [a-zA-Z0-9_-] before the
// command is echoed back.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "BananaLab page linter")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: pagelint <command> <file>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate <pages.json>  - Report elements the renderer skips or reinterprets")
	fmt.Fprintln(w, "  assets <pages.json>    - List image references in paint order")
	fmt.Fprintln(w, "  status [thumbs.db]     - Count thumbnails in the store")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DATABASE_PATH - Thumbnail store used by status when no file is given")
}

// printer writes lines, with ANSI color when attached to a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
	ansiBold   = "\x1b[1m"
)

func (p *printer) styled(style, format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	if p.color {
		s = style + s + ansiReset
	}
	fmt.Fprintln(p.w, s)
}

func (p *printer) heading(format string, args ...interface{}) { p.styled(ansiBold, format, args...) }
func (p *printer) warn(format string, args ...interface{})    { p.styled(ansiYellow, format, args...) }
func (p *printer) ok(format string, args ...interface{})      { p.styled(ansiGreen, format, args...) }

func (p *printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func pageName(i int, p *page.Page) string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("#%d", i+1)
}

// validate prints warnings per page and returns the exit code.
func validate(out *printer, pages []*page.Page) int {
	total := 0
	for i, p := range pages {
		warnings := page.Validate(p)
		if len(warnings) == 0 {
			out.ok("%s: ok", pageName(i, p))
			continue
		}
		total += len(warnings)
		out.heading("%s: %d warning(s)", pageName(i, p), len(warnings))
		for _, w := range warnings {
			out.warn("  - %s", w)
		}
	}
	if total > 0 {
		return 1
	}
	return 0
}

func listAssets(out *printer, pages []*page.Page) {
	for i, p := range pages {
		refs := page.AssetRefs(p)
		out.heading("%s: %d asset(s)", pageName(i, p), len(refs))
		for _, ref := range refs {
			out.line("  %-5s %s", assets.SourceOf(ref), shorten(ref, 96))
		}
	}
}

// shorten keeps data URIs from flooding the terminal.
func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func status(ctx context.Context, out *printer, dbPath string) int {
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no database path given and DATABASE_PATH is not set")
		return 2
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s, err := store.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
		return 1
	}
	defer func() {
		if err := s.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
		}
	}()

	n, err := s.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	out.ok("%s: %d thumbnail(s) stored", dbPath, n)
	return 0
}
