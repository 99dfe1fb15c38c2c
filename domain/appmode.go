package domain

import "fmt"

// AppMode identifies the kind of content an app serves. The ordinal is the
// integer the server stores in an app's app_mode field.
type AppMode int

const (
	AppModeUnknown AppMode = iota
	AppModeShiny
	AppModeRMarkdownShiny
	AppModeRMarkdownStatic
	AppModeStatic
	AppModePlumber
	AppModeTensorFlow
	AppModeJupyterNotebook
	AppModePythonAPI
	AppModeDash
	AppModeStreamlit
	AppModeBokeh
	AppModeFastAPI
	AppModeShinyPython
	AppModeQuartoShiny
	AppModeQuartoStatic
)

type appModeInfo struct {
	name string
	desc string
}

var appModes = []appModeInfo{
	AppModeUnknown:         {"unknown", "<unknown>"},
	AppModeShiny:           {"shiny", "Shiny App"},
	AppModeRMarkdownShiny:  {"rmd-shiny", "Shiny App (RMarkdown)"},
	AppModeRMarkdownStatic: {"rmd-static", "RMarkdown"},
	AppModeStatic:          {"static", "Static HTML"},
	AppModePlumber:         {"api", "API"},
	AppModeTensorFlow:      {"tensorflow-saved-model", "TensorFlow Model API"},
	AppModeJupyterNotebook: {"jupyter-static", "Jupyter Notebook"},
	AppModePythonAPI:       {"python-api", "Python API"},
	AppModeDash:            {"python-dash", "Dash Application"},
	AppModeStreamlit:       {"python-streamlit", "Streamlit Application"},
	AppModeBokeh:           {"python-bokeh", "Bokeh Application"},
	AppModeFastAPI:         {"python-fastapi", "Python FastAPI"},
	AppModeShinyPython:     {"python-shiny", "Python Shiny Application"},
	AppModeQuartoShiny:     {"quarto-shiny", "Quarto Shiny App"},
	AppModeQuartoStatic:    {"quarto-static", "Quarto Document"},
}

// AppModeFromOrdinal returns the mode stored under ordinal. The second
// result is false when the ordinal is not a known mode.
func AppModeFromOrdinal(ordinal int) (AppMode, bool) {
	if ordinal < 0 || ordinal >= len(appModes) {
		return AppModeUnknown, false
	}
	return AppMode(ordinal), true
}

// ParseAppMode parses the wire name of a mode, e.g. "python-api".
func ParseAppMode(name string) (AppMode, error) {
	for i, info := range appModes {
		if info.name == name {
			return AppMode(i), nil
		}
	}
	return AppModeUnknown, fmt.Errorf("invalid app mode: %q", name)
}

// AppModeNames lists the wire names of every known mode, in ordinal order.
func AppModeNames() []string {
	names := make([]string, len(appModes))
	for i, info := range appModes {
		names[i] = info.name
	}
	return names
}

func (m AppMode) valid() bool {
	return m >= 0 && int(m) < len(appModes)
}

func (m AppMode) Ordinal() int {
	return int(m)
}

// Name returns the wire name of the mode.
func (m AppMode) Name() string {
	if !m.valid() {
		return appModes[AppModeUnknown].name
	}
	return appModes[m].name
}

// Description returns a human-readable label for the mode.
func (m AppMode) Description() string {
	if !m.valid() {
		return appModes[AppModeUnknown].desc
	}
	return appModes[m].desc
}

func (m AppMode) String() string {
	return m.Name()
}
