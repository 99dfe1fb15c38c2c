package output

import (
	"strings"
	"testing"
	"time"

	"github.com/oar-cd/connectctl/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPrintTable(t *testing.T) {
	out, err := PrintTable([]string{"Key", "Value"}, [][]string{{"a", "1"}, {"bb", "22"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, strings.ToUpper(lines[0]), "KEY")
	assert.Contains(t, lines[2], "bb")
	assert.Contains(t, lines[2], "22")
}

func TestPrintDeploymentResult(t *testing.T) {
	out, err := PrintDeploymentResult(&domain.DeploymentResult{
		TaskID:  "task-1",
		AppID:   42,
		AppGUID: "guid-42",
		Title:   "Site",
	}, "https://connect.example.com/connect/#/apps/guid-42")
	require.NoError(t, err)

	assert.Contains(t, out, "42")
	assert.Contains(t, out, "task-1")
	assert.Contains(t, out, "Dashboard URL")
	assert.NotContains(t, out, "App URL", "empty URLs are left out")
}

func TestPrintAppSummaries(t *testing.T) {
	InitColors(true)

	out, err := PrintAppSummaries(nil)
	require.NoError(t, err)
	assert.Equal(t, "No matching apps found.\n", out)

	out, err = PrintAppSummaries([]domain.AppSummary{
		{ID: 3, Name: "site", Title: strings.Repeat("t", 60), AppMode: "static", ConfigURL: "https://c/apps/3"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "site")
	assert.Contains(t, out, "static")
	assert.Contains(t, out, strings.Repeat("t", 37)+"...")
	assert.NotContains(t, out, strings.Repeat("t", 41))
}

func TestPrintServerList(t *testing.T) {
	InitColors(true)

	out, err := PrintServerList(nil)
	require.NoError(t, err)
	assert.Equal(t, "No servers found.\n", out)

	alias := domain.NewServerAlias("prod", "https://connect.example.com", "Hx7pQ2vLk9sT0wYz", true, "")
	alias.UpdatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	out, err = PrintServerList([]*domain.ServerAlias{alias})
	require.NoError(t, err)
	assert.Contains(t, out, "prod")
	assert.Contains(t, out, "https://connect.example.com")
	assert.Contains(t, out, "2025-03-01 10:00:00")
	assert.NotContains(t, out, "Hx7pQ2vLk9sT0wYz", "API keys are masked")
}

func TestPrintDeploymentRecords(t *testing.T) {
	InitColors(true)

	out, err := PrintDeploymentRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "No deployments found.\n", out)

	out, err = PrintDeploymentRecords([]*domain.DeploymentRecord{{
		ServerURL: "https://connect.example.com",
		AppID:     7,
		AppMode:   domain.AppModeStatic,
		Status:    domain.DeploymentStatusCompleted,
		Title:     "Site",
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "static")
	assert.Contains(t, out, domain.DeploymentStatusCompleted.String())
}

func TestPrintYAML(t *testing.T) {
	out, err := PrintYAML([]domain.AppSummary{{ID: 3, Name: "site", AppMode: "static"}})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 3, decoded[0]["id"])
	assert.Equal(t, "site", decoded[0]["name"])
	assert.Equal(t, "static", decoded[0]["app_mode"])
}
