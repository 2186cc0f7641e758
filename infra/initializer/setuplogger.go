package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var levelStyles = map[log.Level]struct {
	icon  string
	color lipgloss.AdaptiveColor
}{
	log.ErrorLevel: {"❌", lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}},
	log.WarnLevel:  {"⚠️", lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}},
	log.InfoLevel:  {"ℹ️", lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}},
	log.DebugLevel: {"🐛", lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}},
}

// keyColor highlights structured keys that show up on most back-office lines.
var keyColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}

func loggerStyles() *log.Styles {
	styles := log.DefaultStyles()
	for level, s := range levelStyles {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(s.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(s.color)
	}
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(levelStyles[log.ErrorLevel].color)
	styles.Values["error"] = lipgloss.NewStyle().Bold(true)
	for _, key := range []string{"method", "id", "account_id", "number", "username", "prefix"} {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(keyColor)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	return styles
}

// setupLogger builds the process logger on charmbracelet/log and installs it
// as the slog default.
func setupLogger(cfg *config.Log) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}
	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(loggerStyles())

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}
