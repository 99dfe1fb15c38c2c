package search

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/executor"
	"github.com/oar-cd/connectctl/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupApp(t *testing.T, transport *mocks.MockTransport) {
	t.Helper()
	output.InitColors(true)

	prod := domain.NewServerAlias("prod", "https://connect.example.com", "stored-key", false, "")
	servers := &mocks.MockServerStore{
		ListFunc: func() ([]*domain.ServerAlias, error) { return []*domain.ServerAlias{prod}, nil },
	}
	apps := &mocks.MockAppStore{}
	app.SetForTesting(nil, servers, apps, executor.New(servers, apps, executor.WithDialer(mocks.Dialer(transport))))
	t.Cleanup(func() { app.SetForTesting(nil, nil, nil, nil) })
}

func searchTransport() *mocks.MockTransport {
	static := domain.AppModeStatic.Ordinal()
	api := domain.AppModePythonAPI.Ordinal()
	return &mocks.MockTransport{
		GetFunc: func(_ context.Context, path string, _ url.Values) *connect.Response {
			switch path {
			case "applications":
				return mocks.OK(domain.SearchPage{
					Total: 2,
					Applications: []domain.App{
						{ID: 1, Name: "sales", Title: "Sales", AppMode: static},
						{ID: 2, Name: "sales_api", Title: "Sales API", AppMode: api},
					},
				})
			case "applications/1/config":
				return mocks.OK(domain.AppConfig{ConfigURL: "https://connect.example.com/connect/#/apps/1"})
			}
			return mocks.NotFound()
		},
	}
}

func TestSearch(t *testing.T) {
	transport := searchTransport()
	setupApp(t, transport)

	var stdout bytes.Buffer
	cmd := NewCmdSearch()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"Sales"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "sales")
	assert.Contains(t, stdout.String(), "https://connect.example.com/connect/#/apps/1")
	assert.NotContains(t, stdout.String(), "sales_api", "only static and notebook apps are listed")

	calls := transport.CallsTo(http.MethodGet, "applications")
	require.Len(t, calls, 1)
	assert.Equal(t, "Sales", calls[0].Query.Get("search"))
	assert.Equal(t, "min_role:editor", calls[0].Query.Get("filter"))
}

func TestSearch_YAML(t *testing.T) {
	setupApp(t, searchTransport())

	var stdout bytes.Buffer
	cmd := NewCmdSearch()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"Sales", "--output", "yaml"})

	require.NoError(t, cmd.Execute())

	var apps []domain.AppSummary
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, int64(1), apps[0].ID)
	assert.Equal(t, "static", apps[0].AppMode)
}

func TestSearch_InvalidFormat(t *testing.T) {
	transport := searchTransport()
	setupApp(t, transport)

	cmd := NewCmdSearch()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"Sales", "-o", "json"})

	assert.ErrorContains(t, cmd.Execute(), `invalid output format "json"`)
	assert.Empty(t, transport.Calls())
}

func TestFindName(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		existing []string
		want     string
	}{
		{name: "free", title: "My Report", want: "my_report\n"},
		{name: "taken", title: "My Report", existing: []string{"my_report", "my_report1"}, want: "my_report2\n"},
		{name: "short", title: "x", want: "x__\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupApp(t, mocks.FakeConnect(nil, tt.existing, domain.TaskStatus{}))

			var stdout bytes.Buffer
			cmd := NewCmdFindName()
			cmd.SetOut(&stdout)
			cmd.SetArgs([]string{tt.title})

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}
