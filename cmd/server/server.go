// Package server implements the commands that manage stored servers.
package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/repository"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptAPIKey reads an API key from the terminal without echoing it. It
// returns "" when stdin is not a terminal.
var promptAPIKey = func(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	if _, err := fmt.Fprint(w, "API key: "); err != nil {
		return "", err
	}
	key, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

func NewCmdServer() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage stored Connect servers",
		Long: `Stored servers let other commands select a server by nickname with
-n/--name. Their API keys are kept encrypted in the local store.`,
	}

	cmd.AddCommand(newCmdServerAdd())
	cmd.AddCommand(newCmdServerList())
	cmd.AddCommand(newCmdServerRemove())
	cmd.AddCommand(newCmdServerVerify())
	return cmd
}

func newCmdServerAdd() *cobra.Command {
	var (
		apiKey   string
		insecure bool
		caFile   string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Store a server under a nickname",
		Long: `Store a server under a nickname, replacing any server stored under the
same nickname. The server and the API key are verified first unless
--no-verify is given. Without --api-key, the key is prompted for.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, url := args[0], args[1]
			out := cmd.OutOrStdout()

			caData, err := utils.ReadCACert(caFile)
			if err != nil {
				return err
			}

			if apiKey == "" {
				if apiKey, err = promptAPIKey(out); err != nil {
					return err
				}
			}

			alias := domain.NewServerAlias(name, url, apiKey, insecure, caData)

			if !noVerify {
				server, err := alias.Connection()
				if err != nil {
					return err
				}
				username, err := app.GetExecutor().VerifyConnection(cmd.Context(), server)
				if err != nil {
					return err
				}
				if username != "" {
					if err := output.FprintPlain(out, "Authenticated as %s", username); err != nil {
						return err
					}
				}
			}

			if err := app.GetServerStore().Save(alias); err != nil {
				return fmt.Errorf("failed to save server: %w", err)
			}
			return output.FprintSuccess(out, "Server '%s' saved (%s)", alias.Name, alias.URL)
		},
	}

	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "API key for the server")
	cmd.Flags().BoolVarP(&insecure, "insecure", "i", false, "Skip TLS certificate verification")
	cmd.Flags().StringVar(&caFile, "cacert", "", "PEM file with the CA certificates to trust")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Store the server without contacting it")
	return cmd
}

type serverView struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	HasAPIKey bool   `yaml:"has_api_key"`
	Insecure  bool   `yaml:"insecure"`
	HasCACert bool   `yaml:"has_ca_cert"`
}

func newCmdServerList() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := app.GetServerStore().List()
			if err != nil {
				return err
			}

			var out string
			switch format {
			case "table":
				out, err = output.PrintServerList(servers)
			case "yaml":
				views := make([]serverView, 0, len(servers))
				for _, s := range servers {
					views = append(views, serverView{
						Name:      s.Name,
						URL:       s.URL,
						HasAPIKey: s.APIKey != "",
						Insecure:  s.Insecure,
						HasCACert: s.CAData != "",
					})
				}
				out, err = output.PrintYAML(views)
			default:
				return fmt.Errorf("invalid output format %q: must be table or yaml", format)
			}
			if err != nil {
				return err
			}
			return output.FprintPlain(cmd.OutOrStdout(), "%s", out)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format (table or yaml)")
	return cmd
}

func newCmdServerRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a stored server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.GetServerStore().Delete(args[0])
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no server named '%s'", args[0])
			}
			if err != nil {
				return err
			}
			return output.FprintSuccess(cmd.OutOrStdout(), "Server '%s' removed", args[0])
		},
	}
}

func newCmdServerVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <name>",
		Short: "Check that a stored server and its API key still work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alias, err := app.GetServerStore().FindByName(args[0])
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("no server named '%s'", args[0])
			}
			if err != nil {
				return err
			}

			server, err := alias.Connection()
			if err != nil {
				return err
			}
			username, err := app.GetExecutor().VerifyConnection(cmd.Context(), server)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if username == "" {
				return output.FprintSuccess(out, "Server '%s' is reachable (no API key stored)", alias.Name)
			}
			return output.FprintSuccess(out, "Server '%s' is reachable, authenticated as %s", alias.Name, username)
		},
	}
}
