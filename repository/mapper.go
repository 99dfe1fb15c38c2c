// Package repository provides the data access layer for server aliases and
// deployment records.
package repository

import (
	"fmt"
	"log/slog"

	"github.com/oar-cd/connectctl/db"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/encryption"
)

type ServerMapper struct {
	encryption *encryption.Service
}

func NewServerMapper(encryptionSvc *encryption.Service) *ServerMapper {
	return &ServerMapper{encryption: encryptionSvc}
}

func (m *ServerMapper) ToDomain(s *db.ServerModel) *domain.ServerAlias {
	apiKey := ""
	if s.APIKey != "" && m.encryption != nil {
		decrypted, err := m.encryption.Decrypt(s.APIKey)
		if err != nil {
			// The alias stays usable with a key supplied on the command line.
			// This happens when the encryption key changed.
			slog.Error("Failed to decrypt API key",
				"server_name", s.Name,
				"server_url", s.URL,
				"error", err)
		} else {
			apiKey = decrypted
		}
	}

	return &domain.ServerAlias{
		ID:        s.ID,
		Name:      s.Name,
		URL:       s.URL,
		APIKey:    apiKey,
		Insecure:  s.Insecure,
		CAData:    s.CAData,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ServerMapper) ToModel(a *domain.ServerAlias) (*db.ServerModel, error) {
	model := &db.ServerModel{
		BaseModel: db.BaseModel{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		Name:     a.Name,
		URL:      a.URL,
		Insecure: a.Insecure,
		CAData:   a.CAData,
	}

	if a.APIKey != "" {
		if m.encryption == nil {
			return nil, fmt.Errorf("cannot store API key for %q without an encryption key", a.Name)
		}
		token, err := m.encryption.Encrypt(a.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt API key: %w", err)
		}
		model.APIKey = token
	}

	return model, nil
}

type DeploymentMapper struct{}

func (m *DeploymentMapper) ToDomain(d *db.DeploymentModel) *domain.DeploymentRecord {
	status, err := domain.ParseDeploymentStatus(d.Status)
	if err != nil {
		status = domain.DeploymentStatusUnknown
	}
	mode, err := domain.ParseAppMode(d.AppMode)
	if err != nil {
		mode = domain.AppModeUnknown
	}

	return &domain.DeploymentRecord{
		ID:        d.ID,
		ServerURL: d.ServerURL,
		Path:      d.Path,
		AppID:     d.AppID,
		AppGUID:   d.AppGUID,
		AppMode:   mode,
		Title:     d.Title,
		AppURL:    d.AppURL,
		TaskID:    d.TaskID,
		Status:    status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (m *DeploymentMapper) ToModel(d *domain.DeploymentRecord) *db.DeploymentModel {
	return &db.DeploymentModel{
		BaseModel: db.BaseModel{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		ServerURL: d.ServerURL,
		Path:      d.Path,
		AppID:     d.AppID,
		AppGUID:   d.AppGUID,
		AppMode:   d.AppMode.Name(),
		Title:     d.Title,
		AppURL:    d.AppURL,
		TaskID:    d.TaskID,
		Status:    d.Status.String(),
	}
}
