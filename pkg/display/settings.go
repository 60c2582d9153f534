// Package display renders operator-facing output. Rendering is best-effort:
// the orchestrator never gates dispatch on it.
package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/pgmirror/pkg/settings"
	"github.com/arthur-debert/pgmirror/pkg/style"
)

// SettingsInfo is what gets shown before any document is dispatched.
type SettingsInfo struct {
	ConfigPath        string
	Postgres          settings.Postgres
	CheckpointBackend string

	// Overridden names the connection parameters supplied on the command
	// line. Values are never echoed.
	Overridden []string

	// Teardown marks a decommissioning run.
	Teardown bool
}

// Renderer renders the resolved settings block.
type Renderer interface {
	RenderSettings(info SettingsInfo) string
}

// NewRenderer picks rich or plain output for the given writer.
func NewRenderer(out io.Writer) Renderer {
	if isTerminalWriter(out) && !termenv.EnvNoColor() {
		return &RichRenderer{}
	}
	return &PlainRenderer{}
}

// Settings renders the resolved settings to out.
func Settings(out io.Writer, info SettingsInfo) {
	fmt.Fprint(out, NewRenderer(out).RenderSettings(info))
}

func isTerminalWriter(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// settingsRows flattens the info into ordered key/value pairs.
func settingsRows(info SettingsInfo) [][2]string {
	mode := "setup"
	if info.Teardown {
		mode = "teardown"
	}

	overridden := append([]string{}, info.Overridden...)
	sort.Strings(overridden)
	overrides := "none"
	if len(overridden) > 0 {
		overrides = strings.Join(overridden, ", ")
	}

	password := "(unset)"
	if info.Postgres.Password != "" {
		password = "********"
	}

	rows := [][2]string{
		{"config", info.ConfigPath},
		{"mode", mode},
		{"host", info.Postgres.Host},
		{"port", strconv.Itoa(info.Postgres.Port)},
		{"user", info.Postgres.User},
		{"password", password},
		{"sslmode", info.Postgres.SSLMode},
		{"checkpoint", info.CheckpointBackend},
		{"overrides", overrides},
	}
	return rows
}

// RichRenderer produces styled terminal output.
type RichRenderer struct{}

// RenderSettings renders the settings block with colors.
func (r *RichRenderer) RenderSettings(info SettingsInfo) string {
	var b strings.Builder

	b.WriteString(style.TitleStyle.Render("Settings") + "\n")
	for _, row := range settingsRows(info) {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			pterm.Info.Prefix.Text,
			style.KeyStyle.Render(padRight(row[0], 12)),
			row[1]))
	}
	b.WriteString("\n")
	return b.String()
}

// PlainRenderer produces unstyled output for pipes and dumb terminals.
type PlainRenderer struct{}

// RenderSettings renders the settings block without styling.
func (r *PlainRenderer) RenderSettings(info SettingsInfo) string {
	var b strings.Builder

	b.WriteString("Settings\n")
	for _, row := range settingsRows(info) {
		b.WriteString(fmt.Sprintf("  %s %s\n", padRight(row[0], 12), row[1]))
	}
	b.WriteString("\n")
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
