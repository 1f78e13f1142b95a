// Package diag renders the core's parse/validation/compile errors and
// trap reports to a terminal, and wraps the structured logger the rest of
// the runtime writes operational events to.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// Severity classifies a diagnostic for both log level and rendered color.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// NewLogger builds the zap.SugaredLogger the rest of the runtime logs
// through. verbose raises the level from Info to Debug.
func NewLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "" // diagnostics go to the renderer below, not the structured log.
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("diag: build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Renderer prints diagnostics to an output stream, optionally colorized.
type Renderer struct {
	out      io.Writer
	colorize bool
}

// NewRenderer builds a Renderer writing to out. When ansiOverride is nil,
// color is enabled only when out is a terminal and neither NO_COLOR nor
// the runtime's own UWVM_NO_COLOR variable is set; pass a non-nil bool to
// force the decision, mirroring an explicit `--enable-ansi`/`--disable-ansi`
// command line flag.
func NewRenderer(out *os.File, ansiOverride *bool) *Renderer {
	r := &Renderer{out: out}
	if ansiOverride != nil {
		r.colorize = *ansiOverride
		return r
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	_, noColorUwvm := os.LookupEnv("UWVM_NO_COLOR")
	isTTY := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	r.colorize = isTTY && !noColor && !noColorUwvm
	return r
}

func (r *Renderer) colorFor(s Severity) *color.Color {
	switch s {
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	case SeverityError, SeverityFatal:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// Diagnostic prints a single rendered message, e.g.
// "error: section Code: invalid section length: expected to be 4 but got 3".
func (r *Renderer) Diagnostic(severity Severity, format string, args ...interface{}) {
	prefix := severity.String() + ": "
	msg := fmt.Sprintf(format, args...)
	if r.colorize {
		r.colorFor(severity).Fprint(r.out, prefix)
		fmt.Fprintln(r.out, msg)
		return
	}
	fmt.Fprintln(r.out, prefix+msg)
}
