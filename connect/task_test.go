package connect_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTasks answers successive task polls with statuses, repeating the
// last one once the script is exhausted.
func scriptedTasks(statuses ...domain.TaskStatus) *mocks.MockTransport {
	var (
		mu   sync.Mutex
		next int
	)
	return &mocks.MockTransport{
		GetFunc: func(_ context.Context, path string, _ url.Values) *connect.Response {
			if path == "applications/10/config" {
				return mocks.OK(domain.AppConfig{ConfigURL: "https://connect.example.com/connect/#/apps/10"})
			}
			mu.Lock()
			defer mu.Unlock()
			status := statuses[min(next, len(statuses)-1)]
			next++
			return mocks.OK(status)
		},
	}
}

func fastOptions() connect.WaitOptions {
	return connect.WaitOptions{
		PollWait: time.Millisecond,
		Tick:     time.Millisecond,
	}
}

func TestWaitForTask_StreamsNewLines(t *testing.T) {
	transport := scriptedTasks(
		domain.TaskStatus{ID: "t1", Status: []string{"Building", "Installing"}, LastStatus: 2},
		domain.TaskStatus{ID: "t1", Status: []string{"ignored"}, LastStatus: 2},
		domain.TaskStatus{ID: "t1", Status: []string{"Launching"}, LastStatus: 3, Finished: true},
	)
	client := newTestClient(t, transport)

	lines, status, err := client.WaitForTask(context.Background(), "t1", fastOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Building", "Installing", "Launching"}, lines)
	assert.True(t, status.Finished)
	assert.Zero(t, status.Code)

	calls := transport.CallsTo("GET", "tasks/t1")
	require.Len(t, calls, 3)
	assert.Empty(t, calls[0].Query.Get("first_status"))
	assert.Equal(t, "2", calls[1].Query.Get("first_status"))
	assert.Equal(t, "2", calls[2].Query.Get("first_status"))
}

func TestWaitForTask_LogSink(t *testing.T) {
	transport := scriptedTasks(
		domain.TaskStatus{Status: []string{"one", "two"}, LastStatus: 2, Finished: true},
	)
	client := newTestClient(t, transport)

	var seen []string
	opts := fastOptions()
	opts.LogSink = func(line string) { seen = append(seen, line) }

	lines, _, err := client.WaitForTask(context.Background(), "t1", opts)
	require.NoError(t, err)
	assert.Nil(t, lines)
	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestWaitForTask_FinishedSummaryLines(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{
		Status:     []string{"done"},
		LastStatus: 1,
		Finished:   true,
		Result:     json.RawMessage(`{"data":"https://c/content/1/","type":"url"}`),
		Error:      "warning from server",
	})
	client := newTestClient(t, transport)

	lines, _, err := client.WaitForTask(context.Background(), "t1", fastOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"done",
		"https://c/content/1/ (url)",
		"Error from Connect server: warning from server",
	}, lines)
}

func TestWaitForTask_ResultShapes(t *testing.T) {
	tests := []struct {
		name      string
		result    string
		wantLines []string
	}{
		{
			name:      "object data",
			result:    `{"type":"url","data":{"url":"https://x"}}`,
			wantLines: []string{"done", `{"url":"https://x"} (url)`},
		},
		{
			name:      "numeric data",
			result:    `{"data":42,"type":"count"}`,
			wantLines: []string{"done", "42 (count)"},
		},
		{
			name:      "type only",
			result:    `{"type":"url"}`,
			wantLines: []string{"done", " (url)"},
		},
		{
			name:      "empty members",
			result:    `{"data":"","type":null}`,
			wantLines: []string{"done"},
		},
		{
			name:      "string result",
			result:    `"done"`,
			wantLines: []string{"done"},
		},
		{
			name:      "array result",
			result:    `[1,2]`,
			wantLines: []string{"done"},
		},
		{
			name:      "null result",
			result:    `null`,
			wantLines: []string{"done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"status":["done"],"last_status":1,"finished":true,"code":0,"result":` + tt.result + `}`
			transport := &mocks.MockTransport{
				GetFunc: func(_ context.Context, _ string, _ url.Values) *connect.Response {
					return &connect.Response{StatusCode: http.StatusOK, Reason: "OK", Body: []byte(body)}
				},
			}
			client := newTestClient(t, transport)

			lines, status, err := client.WaitForTask(context.Background(), "t1", fastOptions())
			require.NoError(t, err)
			assert.True(t, status.Finished)
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestWaitForTask_NonZeroExitCode(t *testing.T) {
	tests := []struct {
		name         string
		raiseOnError bool
		wantErr      bool
		wantLastLine string
	}{
		{
			name:         "raise on error",
			raiseOnError: true,
			wantErr:      true,
			wantLastLine: "failing",
		},
		{
			name:         "log only",
			raiseOnError: false,
			wantLastLine: "Task failed. Task exited with status 5.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := scriptedTasks(domain.TaskStatus{
				Status:     []string{"failing"},
				LastStatus: 1,
				Finished:   true,
				Code:       5,
			})
			client := newTestClient(t, transport)

			opts := fastOptions()
			opts.RaiseOnError = tt.raiseOnError
			lines, status, err := client.WaitForTask(context.Background(), "t1", opts)

			if tt.wantErr {
				require.ErrorIs(t, err, connect.ErrTaskFailed)
				assert.Equal(t, "Task exited with status 5.", err.Error())
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, status)
			assert.Equal(t, 5, status.Code)
			require.NotEmpty(t, lines)
			assert.Equal(t, tt.wantLastLine, lines[len(lines)-1])
		})
	}
}

func TestWaitForTask_Timeout(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{Status: []string{"working"}, LastStatus: 1})
	client := newTestClient(t, transport)

	opts := fastOptions()
	opts.Timeout = 20 * time.Millisecond

	start := time.Now()
	lines, _, err := client.WaitForTask(context.Background(), "t1", opts)
	require.ErrorIs(t, err, connect.ErrTaskTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"working"}, lines)
}

func TestWaitForTask_TimeoutCutsOffHangingPoll(t *testing.T) {
	transport := &mocks.MockTransport{
		GetFunc: func(ctx context.Context, _ string, _ url.Values) *connect.Response {
			<-ctx.Done()
			return mocks.TransportError(ctx.Err())
		},
	}
	client := newTestClient(t, transport)

	opts := fastOptions()
	opts.Timeout = time.Second

	start := time.Now()
	_, _, err := client.WaitForTask(context.Background(), "t1", opts)
	require.ErrorIs(t, err, connect.ErrTaskTimeout)
	assert.Equal(t, "task timed out after 1 seconds", err.Error())
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestWaitForTask_ZeroTimeoutWaitsForCompletion(t *testing.T) {
	statuses := make([]domain.TaskStatus, 30)
	statuses[29] = domain.TaskStatus{Finished: true}
	client := newTestClient(t, scriptedTasks(statuses...))

	_, status, err := client.WaitForTask(context.Background(), "t1", fastOptions())
	require.NoError(t, err)
	assert.True(t, status.Finished)
}

func TestWaitForTask_AbortAfterTicks(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{LastStatus: 1})
	client := newTestClient(t, transport)

	var checks atomic.Int32
	opts := fastOptions()
	opts.PollWait = time.Hour
	opts.Abort = func() bool { return checks.Add(1) > 3 }

	_, _, err := client.WaitForTask(context.Background(), "t1", opts)
	require.ErrorIs(t, err, connect.ErrTaskAborted)
	assert.Equal(t, int32(4), checks.Load())
	// Abort was noticed before the first poll was due
	assert.Empty(t, transport.Calls())
}

func TestWaitForTask_ContextCancel(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{LastStatus: 1})
	client := newTestClient(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	opts := connect.WaitOptions{PollWait: time.Hour, Tick: 50 * time.Millisecond}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, _, err := client.WaitForTask(ctx, "t1", opts)
	require.ErrorIs(t, err, connect.ErrTaskAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForTask_PollErrorPropagates(t *testing.T) {
	transport := &mocks.MockTransport{
		GetFunc: func(_ context.Context, _ string, _ url.Values) *connect.Response {
			return mocks.TransportError(errors.New("connection reset"))
		},
	}
	client := newTestClient(t, transport)

	_, _, err := client.WaitForTask(context.Background(), "t1", fastOptions())
	assert.ErrorIs(t, err, connect.ErrTransportFailure)
}

func TestEmitTaskLog(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{Status: []string{"deployed"}, LastStatus: 1, Finished: true})
	client := newTestClient(t, transport)

	configURL, lines, status, err := connect.EmitTaskLog(context.Background(), client, 10, "t1", fastOptions())
	require.NoError(t, err)
	assert.Equal(t, "https://connect.example.com/connect/#/apps/10", configURL)
	assert.Equal(t, []string{"deployed"}, lines)
	assert.True(t, status.Finished)
}

func TestEmitTaskLog_TaskFailure(t *testing.T) {
	transport := scriptedTasks(domain.TaskStatus{Finished: true, Code: 1})
	client := newTestClient(t, transport)

	opts := fastOptions()
	opts.RaiseOnError = true
	configURL, _, _, err := connect.EmitTaskLog(context.Background(), client, 10, "t1", opts)
	require.ErrorIs(t, err, connect.ErrTaskFailed)
	assert.Empty(t, configURL)
	assert.Empty(t, transport.CallsTo("GET", "applications/10/config"))
}
