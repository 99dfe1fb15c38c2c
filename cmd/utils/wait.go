package utils

import (
	"io"
	"time"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/connect"
)

// WaitOptions builds the task wait settings from the command flags. Flags
// left at zero fall back to the configuration. Log lines go to out.
func WaitOptions(out io.Writer, timeout, pollWait time.Duration) connect.WaitOptions {
	if cfg := app.GetConfig(); cfg != nil {
		if timeout == 0 {
			timeout = cfg.TaskTimeout
		}
		if pollWait == 0 {
			pollWait = cfg.PollWait
		}
	}

	opts := connect.WaitOptions{
		LogSink: func(line string) {
			_ = output.FprintPlain(out, "%s", line)
		},
		Timeout:      timeout,
		PollWait:     pollWait,
		RaiseOnError: true,
	}
	if pollWait > 0 {
		opts.Tick = min(connect.DefaultTick, pollWait)
	}
	return opts
}
