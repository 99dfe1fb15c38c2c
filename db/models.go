// Package db provides database models and utilities for connectctl.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServerModel is a named Connect server.
type ServerModel struct {
	BaseModel
	Name     string `gorm:"not null;unique;check:name <> ''"`
	URL      string `gorm:"not null;unique;check:url <> ''"`
	APIKey   string `gorm:"type:text"` // fernet token, empty when no key is stored
	Insecure bool   `gorm:"not null"`
	CAData   string `gorm:"type:text"`
}

func (ServerModel) TableName() string {
	return "servers"
}

// DeploymentModel records one deploy of a local path to a server.
type DeploymentModel struct {
	BaseModel
	ServerURL string `gorm:"not null;index:idx_deployments_target;check:server_url <> ''"`
	Path      string `gorm:"not null;index:idx_deployments_target"`
	AppID     int64  `gorm:"not null"`
	AppGUID   string `gorm:"not null"`
	AppMode   string `gorm:"not null;check:app_mode <> ''"` // wire name, e.g. "python-api"
	Title     string
	AppURL    string
	TaskID    string
	Status    string `gorm:"not null;check:status <> ''"` // started, completed, failed
}

func (DeploymentModel) TableName() string {
	return "deployments"
}

type MigrationModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;unique"`
	AppliedAt time.Time
}

func (MigrationModel) TableName() string {
	return "migrations"
}
