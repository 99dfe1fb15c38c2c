// Package utils provides utility functions for CLI commands in connectctl.
package utils

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/compose-spec/compose-go/v2/dotenv"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
)

// Exit codes used by HandleCommandError.
const (
	ExitFailure = 1
	ExitAborted = 130
)

// HandleCommandError provides consistent error handling for CLI commands
func HandleCommandError(w io.Writer, operation string, err error, context ...any) {
	slog.Error("Command failed", append([]any{"operation", operation, "error", err}, context...)...)
	_ = output.FprintError(w, "Error: %s", FormatErrorForUser(err))
	os.Exit(ExitCode(err))
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, connect.ErrTaskAborted) {
		return ExitAborted
	}
	return ExitFailure
}

// FormatErrorForUser turns an error into a short message with a hint on
// what to do about it when one exists.
func FormatErrorForUser(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, connect.ErrModeConflict),
		errors.Is(err, connect.ErrAmbiguousServerSelection):
		return err.Error()
	case errors.Is(err, connect.ErrTaskTimeout):
		return err.Error() + " (the deployment may still be running; follow it with 'connectctl wait')"
	case errors.Is(err, connect.ErrTaskAborted):
		return "interrupted"
	case errors.Is(err, connect.ErrTaskFailed):
		return "the deployment failed: " + err.Error()
	case errors.Is(err, connect.ErrTransportFailure):
		return "could not reach the server: " + err.Error()
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) && connectErr.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d)", connectErr.Message, connectErr.Status)
	}
	return err.Error()
}

// ParseEnvVars merges the variables of envFile with the NAME=VALUE pairs
// given on the command line. Command line values win. File variables come
// first in name order, then new command line names in the order given.
func ParseEnvVars(pairs []string, envFile string) ([]domain.EnvVar, error) {
	values := map[string]string{}
	var order []string
	set := func(name, value string) {
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = value
	}

	if envFile != "" {
		fileVars, err := dotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		for _, name := range slices.Sorted(maps.Keys(fileVars)) {
			set(name, fileVars[name])
		}
	}

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid environment variable %q: expected NAME=VALUE", pair)
		}
		set(strings.TrimSpace(name), value)
	}

	vars := make([]domain.EnvVar, 0, len(order))
	for _, name := range order {
		vars = append(vars, domain.EnvVar{Name: name, Value: values[name]})
	}
	return vars, nil
}
