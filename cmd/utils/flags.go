package utils

import (
	"fmt"
	"os"

	"github.com/oar-cd/connectctl/executor"
	"github.com/spf13/cobra"
)

// ServerFlags are the flags every server-facing command accepts to pick
// its target.
type ServerFlags struct {
	Name       string
	URL        string
	APIKey     string
	Insecure   bool
	CACertFile string
}

func (f *ServerFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Name, "name", "n", "", "Nickname of a stored server")
	cmd.Flags().StringVarP(&f.URL, "server", "s", "", "URL of the Connect server")
	cmd.Flags().StringVarP(&f.APIKey, "api-key", "k", "", "API key for the server")
	cmd.Flags().BoolVarP(&f.Insecure, "insecure", "i", false, "Skip TLS certificate verification")
	cmd.Flags().StringVar(&f.CACertFile, "cacert", "", "PEM file with the CA certificates to trust")
}

// Selection reads the CA file, if any, and returns the selection the flags
// describe.
func (f *ServerFlags) Selection(apiKeyRequired bool) (executor.ServerSelection, error) {
	caData, err := ReadCACert(f.CACertFile)
	if err != nil {
		return executor.ServerSelection{}, err
	}
	return executor.ServerSelection{
		Name:           f.Name,
		URL:            f.URL,
		APIKey:         f.APIKey,
		Insecure:       f.Insecure,
		CACert:         caData,
		APIKeyRequired: apiKeyRequired,
	}, nil
}

// ReadCACert returns the content of a PEM file; an empty path gives "".
func ReadCACert(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read CA certificate file: %w", err)
	}
	return string(data), nil
}
