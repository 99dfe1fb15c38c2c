package wait

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/executor"
	"github.com/oar-cd/connectctl/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, transport *mocks.MockTransport) {
	t.Helper()
	output.InitColors(true)

	servers := &mocks.MockServerStore{}
	apps := &mocks.MockAppStore{}
	app.SetForTesting(nil, servers, apps, executor.New(servers, apps, executor.WithDialer(mocks.Dialer(transport))))
	t.Cleanup(func() { app.SetForTesting(nil, nil, nil, nil) })
}

func TestWait(t *testing.T) {
	tests := []struct {
		name       string
		task       domain.TaskStatus
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "success",
			task:       domain.TaskStatus{Status: []string{"Launching"}, LastStatus: 1, Finished: true},
			wantOutput: []string{"Launching\n", "Task finished. App URL: https://connect.example.com/connect/#/apps/applications/12/config"},
		},
		{
			name:       "failure",
			task:       domain.TaskStatus{Finished: true, Code: 3},
			wantErr:    connect.ErrTaskFailed,
			wantOutput: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := mocks.FakeConnect(nil, nil, tt.task)
			setupApp(t, transport)

			var stdout bytes.Buffer
			cmd := NewCmdWait()
			cmd.SetOut(&stdout)
			cmd.SetArgs([]string{"12", "task-9", "-s", "https://connect.example.com", "-k", "key", "--poll-wait", "1ms"})

			err := cmd.Execute()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, stdout.String(), want)
			}
			assert.NotEmpty(t, transport.CallsTo(http.MethodGet, "tasks/task-9"))
		})
	}
}

func TestWait_InvalidAppID(t *testing.T) {
	setupApp(t, mocks.FakeConnect(nil, nil, domain.TaskStatus{}))

	cmd := NewCmdWait()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"abc", "task-9", "-s", "https://connect.example.com"})

	assert.ErrorContains(t, cmd.Execute(), `invalid app ID "abc"`)
}
