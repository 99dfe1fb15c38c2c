// Package output provides functions to print messages with optional color formatting
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/oar-cd/connectctl/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

const (
	Plain   = color.FgWhite
	Success = color.FgGreen
	Warning = color.FgYellow
	Error   = color.FgRed
)

const timeFormat = "2006-01-02 15:04:05"

var maybeColorize func(kind color.Attribute, tmpl string, a ...any) string

// InitColors sets up color functions based on environment
func InitColors(isColorDisabled bool) {
	if color.NoColor || isColorDisabled {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return fmt.Sprintf(tmpl, a...)
		}
	} else {
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return color.New(kind).SprintfFunc()(tmpl, a...)
		}
	}
}

// PrintMessage formats a message with color (if enabled) and returns it
// with a trailing newline.
func PrintMessage(kind color.Attribute, tmpl string, a ...any) string {
	if maybeColorize == nil || kind == Plain {
		return fmt.Sprintf(tmpl+"\n", a...)
	}
	return fmt.Sprintln(maybeColorize(kind, tmpl, a...))
}

// Fprint writes a formatted message of the given kind to w.
func Fprint(w io.Writer, kind color.Attribute, tmpl string, a ...any) error {
	_, err := io.WriteString(w, PrintMessage(kind, tmpl, a...))
	return err
}

func FprintPlain(w io.Writer, tmpl string, a ...any) error {
	return Fprint(w, Plain, tmpl, a...)
}

func FprintSuccess(w io.Writer, tmpl string, a ...any) error {
	return Fprint(w, Success, tmpl, a...)
}

func FprintWarning(w io.Writer, tmpl string, a ...any) error {
	return Fprint(w, Warning, tmpl, a...)
}

func FprintError(w io.Writer, tmpl string, a ...any) error {
	return Fprint(w, Error, tmpl, a...)
}

func PrintTable(header []string, data [][]string) (string, error) {
	buf := strings.Builder{}

	table := tablewriter.NewTable(
		&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
				},
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignRight, tw.AlignLeft}},
			},
		}))

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(data); err != nil {
		return "", fmt.Errorf("bulk adding data to table: %w", err)
	}

	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}

	return buf.String(), nil
}

// PrintYAML renders v as a YAML document.
func PrintYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return string(out), nil
}

func PrintDeploymentResult(result *domain.DeploymentResult, configURL string) (string, error) {
	data := [][]string{
		{"App ID", strconv.FormatInt(result.AppID, 10)},
		{"App GUID", result.AppGUID},
		{"Title", result.Title},
		{"Task ID", result.TaskID},
	}
	if result.AppURL != "" {
		data = append(data, []string{"App URL", result.AppURL})
	}
	if configURL != "" {
		data = append(data, []string{"Dashboard URL", configURL})
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment result table: %w", err)
	}
	return table, nil
}

func PrintAppSummaries(apps []domain.AppSummary) (string, error) {
	if len(apps) == 0 {
		return PrintMessage(Plain, "No matching apps found."), nil
	}

	header := []string{"ID", "Name", "Title", "Mode", "URL"}
	var data [][]string
	for _, app := range apps {
		data = append(data, []string{
			strconv.FormatInt(app.ID, 10),
			app.Name,
			truncateString(app.Title, 40),
			app.AppMode,
			app.ConfigURL,
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing app table: %w", err)
	}
	return table, nil
}

func PrintServerList(servers []*domain.ServerAlias) (string, error) {
	if len(servers) == 0 {
		return PrintMessage(Plain, "No servers found."), nil
	}

	header := []string{"Name", "URL", "API Key", "Insecure", "Updated At"}
	var data [][]string
	for _, s := range servers {
		data = append(data, []string{
			s.Name,
			s.URL,
			maskSensitiveValue(s.APIKey),
			strconv.FormatBool(s.Insecure),
			s.UpdatedAt.Format(timeFormat),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing server list table: %w", err)
	}
	return table, nil
}

func PrintDeploymentRecords(records []*domain.DeploymentRecord) (string, error) {
	if len(records) == 0 {
		return PrintMessage(Plain, "No deployments found."), nil
	}

	header := []string{"Server", "App ID", "Mode", "Status", "Title", "Updated At"}
	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			r.ServerURL,
			strconv.FormatInt(r.AppID, 10),
			r.AppMode.Name(),
			r.Status.String(),
			truncateString(r.Title, 40),
			r.UpdatedAt.Format(timeFormat),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment table: %w", err)
	}
	return table, nil
}

// maskSensitiveValue hides most of a secret while keeping it recognizable.
func maskSensitiveValue(value string) string {
	switch n := len(value); {
	case n == 0:
		return "(not set)"
	case n <= 2:
		return strings.Repeat("*", n)
	case n <= 8:
		return value[:1] + strings.Repeat("*", n-2) + value[n-1:]
	default:
		return value[:3] + strings.Repeat("*", n-6) + value[n-3:]
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return "..."[:maxLength]
	}
	return s[:maxLength-3] + "..."
}

// CLI flag for disabling color output

// NoColor is a flag that can be used to disable colored output in the CLI.
var NoColor = &noColorFlag{set: false}

type noColorFlag struct {
	set bool
}

func (f *noColorFlag) Set(value string) error {
	// This is a boolean flag, so we ignore the value and just mark it as set
	f.set = true
	return nil
}

func (f *noColorFlag) String() string {
	if f.set {
		return "true"
	}
	return "false"
}

func (f *noColorFlag) Type() string {
	return "bool"
}

// IsSet returns true if the --no-color flag was explicitly set
func (f *noColorFlag) IsSet() bool {
	return f.set
}

// IsBoolFlag tells pflag this is a boolean flag (no argument required)
func (f *noColorFlag) IsBoolFlag() bool {
	return true
}
