package mocks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
)

// FakeConnect answers the requests a deploy makes. Existing apps are
// served from apps, the search lists existingNames, every task reports
// task and a created app gets ID 100 and GUID guid-100.
func FakeConnect(apps map[int64]domain.App, existingNames []string, task domain.TaskStatus) *MockTransport {
	return &MockTransport{
		GetFunc: func(_ context.Context, path string, _ url.Values) *connect.Response {
			switch {
			case path == "server_settings":
				return OK(map[string]any{"version": "2024.01.0"})
			case path == "me":
				return OK(domain.User{Username: "alice"})
			case path == "applications":
				page := domain.SearchPage{Total: len(existingNames)}
				for i, name := range existingNames {
					page.Applications = append(page.Applications, domain.App{ID: int64(i + 1), Name: name})
				}
				return OK(page)
			case strings.HasPrefix(path, "tasks/"):
				return OK(task)
			case strings.HasSuffix(path, "/config"):
				return OK(domain.AppConfig{ConfigURL: "https://connect.example.com/connect/#/apps/" + path})
			}
			for id, app := range apps {
				if path == fmt.Sprintf("applications/%d", id) {
					return OK(app)
				}
			}
			return NotFound()
		},
		PostFunc: func(_ context.Context, path string, _ url.Values, body any) *connect.Response {
			switch {
			case path == "applications":
				return OK(domain.App{ID: 100, GUID: "guid-100", Name: body.(map[string]string)["name"]})
			case strings.HasSuffix(path, "/upload"):
				return OK(domain.Bundle{ID: 7})
			case strings.HasSuffix(path, "/deploy"):
				return OK(domain.Task{ID: "task-1"})
			default:
				return OK(domain.App{})
			}
		},
		PatchFunc: func(_ context.Context, _ string, _ any) *connect.Response {
			return OK([]domain.EnvVar{})
		},
	}
}
