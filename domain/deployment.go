package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnvVar is a single environment variable pushed to an app.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DeploymentResult summarizes one completed deploy request.
type DeploymentResult struct {
	TaskID  string
	AppID   int64
	AppGUID string
	AppURL  string
	Title   string
}

// DeploymentRecord remembers where a local path was last deployed, so that a
// later deploy of the same path can update the same app.
type DeploymentRecord struct {
	ID        uuid.UUID
	ServerURL string
	Path      string
	AppID     int64
	AppGUID   string
	AppMode   AppMode
	Title     string
	AppURL    string
	TaskID    string
	Status    DeploymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDeploymentRecord(serverURL, path string, result *DeploymentResult, mode AppMode) DeploymentRecord {
	return DeploymentRecord{
		ID:        uuid.New(),
		ServerURL: serverURL,
		Path:      path,
		AppID:     result.AppID,
		AppGUID:   result.AppGUID,
		AppMode:   mode,
		Title:     result.Title,
		AppURL:    result.AppURL,
		TaskID:    result.TaskID,
		Status:    DeploymentStatusStarted,
	}
}
