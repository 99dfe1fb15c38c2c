package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/oar-cd/connectctl/db"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/encryption"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

func notFound(err error, format string, a ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), ErrNotFound)
	}
	return err
}

// ServerStore keeps named Connect servers.
type ServerStore interface {
	FindByName(name string) (*domain.ServerAlias, error)
	FindByURL(url string) (*domain.ServerAlias, error)
	List() ([]*domain.ServerAlias, error)
	// Save creates the alias, or replaces the one with the same name.
	Save(alias *domain.ServerAlias) error
	Delete(name string) error
}

type serverRepository struct {
	db     *gorm.DB
	mapper *ServerMapper
}

func (r *serverRepository) FindByName(name string) (*domain.ServerAlias, error) {
	var m db.ServerModel
	if err := r.db.Where("name = ?", name).First(&m).Error; err != nil {
		return nil, notFound(err, "server %q", name)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *serverRepository) FindByURL(url string) (*domain.ServerAlias, error) {
	var m db.ServerModel
	if err := r.db.Where("url = ?", strings.TrimRight(url, "/")).First(&m).Error; err != nil {
		return nil, notFound(err, "server with URL %q", url)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *serverRepository) List() ([]*domain.ServerAlias, error) {
	var models []db.ServerModel
	if err := r.db.Order("name").Find(&models).Error; err != nil {
		return nil, err
	}

	aliases := make([]*domain.ServerAlias, len(models))
	for i, model := range models {
		aliases[i] = r.mapper.ToDomain(&model)
	}
	return aliases, nil
}

func (r *serverRepository) Save(alias *domain.ServerAlias) error {
	var existing db.ServerModel
	err := r.db.Where("name = ?", alias.Name).First(&existing).Error
	switch {
	case err == nil:
		alias.ID = existing.ID
		alias.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		if alias.ID == uuid.Nil {
			alias.ID = uuid.New()
		}
	default:
		return err
	}

	m, err := r.mapper.ToModel(alias)
	if err != nil {
		return err
	}
	if err := r.db.Save(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "save_server",
			"server_name", alias.Name,
			"server_url", alias.URL,
			"error", err)
		return err
	}

	alias.CreatedAt = m.CreatedAt
	alias.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *serverRepository) Delete(name string) error {
	res := r.db.Where("name = ?", name).Delete(&db.ServerModel{})
	if res.Error != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "delete_server",
			"server_name", name,
			"error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("server %q: %w", name, ErrNotFound)
	}
	return nil
}

func NewServerRepository(db *gorm.DB, encryptionSvc *encryption.Service) ServerStore {
	return &serverRepository{
		db:     db,
		mapper: NewServerMapper(encryptionSvc),
	}
}

// AppStore remembers which app each local path was deployed to.
type AppStore interface {
	Save(record *domain.DeploymentRecord) error
	// FindLatest returns the most recent deployment of path to serverURL.
	FindLatest(serverURL, path string) (*domain.DeploymentRecord, error)
	ListByPath(path string) ([]*domain.DeploymentRecord, error)
}

type deploymentRepository struct {
	db     *gorm.DB
	mapper *DeploymentMapper
}

func (r *deploymentRepository) Save(record *domain.DeploymentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m := r.mapper.ToModel(record)
	if err := r.db.Save(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "save_deployment",
			"deployment_id", record.ID,
			"app_id", record.AppID,
			"error", err)
		return err
	}
	// Pick up the timestamps that GORM populated
	*record = *r.mapper.ToDomain(m)
	return nil
}

func (r *deploymentRepository) FindLatest(serverURL, path string) (*domain.DeploymentRecord, error) {
	var m db.DeploymentModel
	err := r.db.
		Where("server_url = ? AND path = ?", strings.TrimRight(serverURL, "/"), path).
		Order("updated_at DESC").
		First(&m).
		Error
	if err != nil {
		return nil, notFound(err, "deployment of %q to %s", path, serverURL)
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *deploymentRepository) ListByPath(path string) ([]*domain.DeploymentRecord, error) {
	var models []db.DeploymentModel
	if err := r.db.Where("path = ?", path).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]*domain.DeploymentRecord, len(models))
	for i, m := range models {
		records[i] = r.mapper.ToDomain(&m)
	}
	return records, nil
}

func NewDeploymentRepository(db *gorm.DB) AppStore {
	return &deploymentRepository{
		db:     db,
		mapper: &DeploymentMapper{},
	}
}
