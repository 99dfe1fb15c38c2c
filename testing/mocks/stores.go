package mocks

import (
	"fmt"

	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/repository"
)

// MockServerStore implements repository.ServerStore for testing
type MockServerStore struct {
	FindByNameFunc func(name string) (*domain.ServerAlias, error)
	FindByURLFunc  func(url string) (*domain.ServerAlias, error)
	ListFunc       func() ([]*domain.ServerAlias, error)
	SaveFunc       func(alias *domain.ServerAlias) error
	DeleteFunc     func(name string) error
}

var _ repository.ServerStore = (*MockServerStore)(nil)

func (m *MockServerStore) FindByName(name string) (*domain.ServerAlias, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(name)
	}
	return nil, fmt.Errorf("server %q: %w", name, repository.ErrNotFound)
}

func (m *MockServerStore) FindByURL(url string) (*domain.ServerAlias, error) {
	if m.FindByURLFunc != nil {
		return m.FindByURLFunc(url)
	}
	return nil, fmt.Errorf("server with URL %q: %w", url, repository.ErrNotFound)
}

func (m *MockServerStore) List() ([]*domain.ServerAlias, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return []*domain.ServerAlias{}, nil
}

func (m *MockServerStore) Save(alias *domain.ServerAlias) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(alias)
	}
	return nil
}

func (m *MockServerStore) Delete(name string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(name)
	}
	return nil
}

// MockAppStore implements repository.AppStore for testing
type MockAppStore struct {
	SaveFunc       func(record *domain.DeploymentRecord) error
	FindLatestFunc func(serverURL, path string) (*domain.DeploymentRecord, error)
	ListByPathFunc func(path string) ([]*domain.DeploymentRecord, error)

	// Saved holds a copy of every record passed to Save.
	Saved []domain.DeploymentRecord
}

var _ repository.AppStore = (*MockAppStore)(nil)

func (m *MockAppStore) Save(record *domain.DeploymentRecord) error {
	m.Saved = append(m.Saved, *record)
	if m.SaveFunc != nil {
		return m.SaveFunc(record)
	}
	return nil
}

func (m *MockAppStore) FindLatest(serverURL, path string) (*domain.DeploymentRecord, error) {
	if m.FindLatestFunc != nil {
		return m.FindLatestFunc(serverURL, path)
	}
	return nil, fmt.Errorf("deployment of %q to %s: %w", path, serverURL, repository.ErrNotFound)
}

func (m *MockAppStore) ListByPath(path string) ([]*domain.DeploymentRecord, error) {
	if m.ListByPathFunc != nil {
		return m.ListByPathFunc(path)
	}
	return []*domain.DeploymentRecord{}, nil
}
