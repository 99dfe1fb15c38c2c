// Package domain provides the core types shared by the Connect client, the
// deploy executor and the local store.
package domain

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Server holds what is needed to talk to one Connect server. Everything
// except APIKey is fixed at construction; the key may be assigned once it
// has been validated.
type Server struct {
	URL      string
	APIKey   string
	Insecure bool
	CAData   string

	// Jar keeps the session cookies across every request made to the server.
	Jar http.CookieJar
}

// NewServer builds a Server with its own cookie jar.
func NewServer(url, apiKey string, insecure bool, caData string) (*Server, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Server{
		URL:      strings.TrimRight(url, "/"),
		APIKey:   apiKey,
		Insecure: insecure,
		CAData:   caData,
		Jar:      jar,
	}, nil
}

// ServerAlias is a named server entry kept in the local store.
type ServerAlias struct {
	ID        uuid.UUID
	Name      string
	URL       string
	APIKey    string
	Insecure  bool
	CAData    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewServerAlias returns an alias with a fresh ID and a normalized URL.
func NewServerAlias(name, url, apiKey string, insecure bool, caData string) *ServerAlias {
	return &ServerAlias{
		ID:       uuid.New(),
		Name:     name,
		URL:      strings.TrimRight(url, "/"),
		APIKey:   apiKey,
		Insecure: insecure,
		CAData:   caData,
	}
}

// Connection builds a Server from the alias.
func (a *ServerAlias) Connection() (*Server, error) {
	return NewServer(a.URL, a.APIKey, a.Insecure, a.CAData)
}
