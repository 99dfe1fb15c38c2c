package domain

import (
	"encoding/json"
	"fmt"
)

// TaskStatus is one poll of a server task. Status holds only the lines
// produced after the cursor that was sent with the request. Result is kept
// raw since servers attach objects of varying shape, and sometimes a value
// that is not an object at all.
type TaskStatus struct {
	ID         string          `json:"id"`
	Status     []string        `json:"status"`
	LastStatus int64           `json:"last_status"`
	Finished   bool            `json:"finished"`
	Code       int             `json:"code"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// DeploymentStatus is the locally recorded state of a deployment.
type DeploymentStatus int

const (
	DeploymentStatusUnknown DeploymentStatus = iota
	DeploymentStatusStarted
	DeploymentStatusCompleted
	DeploymentStatusFailed
)

func (s DeploymentStatus) String() string {
	switch s {
	case DeploymentStatusStarted:
		return "started"
	case DeploymentStatusCompleted:
		return "completed"
	case DeploymentStatusFailed:
		return "failed"
	case DeploymentStatusUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

func ParseDeploymentStatus(s string) (DeploymentStatus, error) {
	switch s {
	case "started":
		return DeploymentStatusStarted, nil
	case "completed":
		return DeploymentStatusCompleted, nil
	case "failed":
		return DeploymentStatusFailed, nil
	case "unknown":
		return DeploymentStatusUnknown, nil
	default:
		return DeploymentStatusUnknown, fmt.Errorf("invalid deployment status: %q", s)
	}
}
