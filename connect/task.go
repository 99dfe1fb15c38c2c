package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oar-cd/connectctl/domain"
)

const (
	// DefaultPollWait is how long to wait between two task status requests.
	DefaultPollWait = 500 * time.Millisecond
	// DefaultTick bounds how long an abort or cancellation goes unnoticed.
	DefaultTick = 500 * time.Millisecond
)

// LogSink receives task log lines in the order the server produced them.
type LogSink func(line string)

// WaitOptions controls WaitForTask.
type WaitOptions struct {
	// LogSink receives every new log line. When nil, lines are collected and
	// returned by WaitForTask instead.
	LogSink LogSink
	// Abort is consulted on every tick; returning true stops the wait.
	Abort func() bool
	// Timeout is measured from the start of the wait. Zero means no limit.
	Timeout time.Duration
	// PollWait is the interval between status requests.
	PollWait time.Duration
	// Tick is the interval at which the deadline and Abort are re-checked.
	Tick time.Duration
	// RaiseOnError turns a nonzero exit code into an ErrTaskFailed error.
	// Otherwise the failure is only written to the log.
	RaiseOnError bool
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.PollWait <= 0 {
		o.PollWait = DefaultPollWait
	}
	if o.Tick <= 0 {
		o.Tick = DefaultTick
	}
	if o.Abort == nil {
		o.Abort = func() bool { return false }
	}
	return o
}

// WaitForTask polls a task until it finishes, streaming new log lines as the
// status cursor advances.
//
// The returned lines are nil when opts.LogSink is set. On error, the lines
// collected so far and the last status seen are returned with it.
func (c *Client) WaitForTask(
	ctx context.Context,
	taskID string,
	opts WaitOptions,
) ([]string, *domain.TaskStatus, error) {
	opts = opts.withDefaults()

	var lines []string
	sink := opts.LogSink
	if sink == nil {
		sink = func(line string) { lines = append(lines, line) }
	}

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}

	var (
		cursor *int64
		last   *domain.TaskStatus
		slept  time.Duration
	)

	for {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			slog.Warn("Task wait timed out", "task_id", taskID, "timeout", opts.Timeout)
			return lines, last, NewError(ErrTaskTimeout, nil, "task timed out after %d seconds", int(opts.Timeout.Seconds()))
		}
		if opts.Abort() || ctx.Err() != nil {
			slog.Info("Task wait aborted", "task_id", taskID)
			return lines, last, NewError(ErrTaskAborted, ctx.Err(), "task aborted")
		}

		// Sleep in ticks rather than for the whole poll interval, so an abort
		// is noticed within one tick.
		if slept < opts.PollWait {
			timer := time.NewTimer(opts.Tick)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
				slept += opts.Tick
			}
			continue
		}
		slept = 0

		status, err := c.pollTask(ctx, taskID, cursor, deadline)
		if err != nil {
			if ctx.Err() != nil {
				return lines, last, NewError(ErrTaskAborted, ctx.Err(), "task aborted")
			}
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				slog.Warn("Task wait timed out", "task_id", taskID, "timeout", opts.Timeout)
				return lines, last, NewError(ErrTaskTimeout, err, "task timed out after %d seconds", int(opts.Timeout.Seconds()))
			}
			return lines, last, err
		}
		last = status
		cursor = emitNewLines(status, cursor, sink)

		if !status.Finished {
			continue
		}

		if line, ok := resultLine(status.Result); ok {
			sink(line)
		}
		if status.Error != "" {
			sink("Error from Connect server: " + status.Error)
		}

		if status.Code != 0 {
			exitStatus := fmt.Sprintf("Task exited with status %d.", status.Code)
			if opts.RaiseOnError {
				return lines, status, NewError(ErrTaskFailed, nil, "%s", exitStatus)
			}
			sink("Task failed. " + exitStatus)
		}

		return lines, status, nil
	}
}

// pollTask fetches one task status. A request still in flight when the
// wait's deadline passes is cut off there.
func (c *Client) pollTask(ctx context.Context, taskID string, cursor *int64, deadline time.Time) (*domain.TaskStatus, error) {
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	return c.GetTask(ctx, taskID, cursor)
}

// resultLine formats a finished task's result as "data (type)". Only an
// object result with a non-empty data or type member yields a line.
func resultLine(raw json.RawMessage) (string, bool) {
	var result map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &result) != nil || result == nil {
		return "", false
	}
	data, typ := memberText(result["data"]), memberText(result["type"])
	if data == "" && typ == "" {
		return "", false
	}
	return fmt.Sprintf("%s (%s)", data, typ), true
}

// memberText renders a result member. Missing, null and empty values give
// an empty string.
func memberText(raw json.RawMessage) string {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "false", "0", "{}", "[]":
		return ""
	}
	return rawText(raw)
}

// emitNewLines passes the status lines to sink when the cursor moved and
// returns the cursor to send with the next request.
func emitNewLines(status *domain.TaskStatus, cursor *int64, sink LogSink) *int64 {
	if cursor != nil && *cursor == status.LastStatus {
		return cursor
	}
	for _, line := range status.Status {
		sink(line)
	}
	next := status.LastStatus
	return &next
}

// EmitTaskLog waits for the deployment task of an app and then resolves the
// URL the deployed content is served at.
func EmitTaskLog(
	ctx context.Context,
	client *Client,
	appID int64,
	taskID string,
	opts WaitOptions,
) (string, []string, *domain.TaskStatus, error) {
	lines, status, err := client.WaitForTask(ctx, taskID, opts)
	if err != nil {
		return "", lines, status, err
	}

	cfg, err := client.GetAppConfig(ctx, appID)
	if err != nil {
		return "", lines, status, err
	}
	return cfg.ConfigURL, lines, status, nil
}
