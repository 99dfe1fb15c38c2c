// Package app provides the application context for connectctl: the
// configuration, the local store and the deploy executor.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oar-cd/connectctl/config"
	"github.com/oar-cd/connectctl/db"
	"github.com/oar-cd/connectctl/encryption"
	"github.com/oar-cd/connectctl/executor"
	"github.com/oar-cd/connectctl/repository"
	"gorm.io/gorm"
)

var (
	// Version is set at build time via -ldflags
	Version = "dev"

	database    *gorm.DB
	servers     repository.ServerStore
	deployments repository.AppStore
	exec        *executor.Executor
	appConfig   *config.Config
)

// InitializeWithConfig opens the store described by cfg and wires the
// executor on top of it. When no encryption key is configured, one is
// generated and written to the .env file of the data directory.
func InitializeWithConfig(cfg *config.Config) error {
	var err error

	appConfig = cfg

	if err := os.MkdirAll(appConfig.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if appConfig.EncryptionKey == "" {
		key, err := encryption.GenerateKey()
		if err != nil {
			return err
		}
		if err := appConfig.PersistEncryptionKey(key); err != nil {
			return err
		}
		slog.Info("Generated encryption key",
			"layer", "app",
			"operation", "initialize",
			"env_file", appConfig.EnvFilePath())
	}

	encryptionSvc, err := encryption.NewService(appConfig.EncryptionKey)
	if err != nil {
		return err
	}

	database, err = db.InitDB(appConfig.DatabasePath)
	if err != nil {
		return err
	}

	servers = repository.NewServerRepository(database, encryptionSvc)
	deployments = repository.NewDeploymentRepository(database)

	exec = executor.New(servers, deployments,
		executor.WithTimeouts(appConfig.RequestTimeout, appConfig.DeployTimeout))
	return nil
}

func GetConfig() *config.Config {
	return appConfig
}

func GetServerStore() repository.ServerStore {
	return servers
}

func GetAppStore() repository.AppStore {
	return deployments
}

func GetExecutor() *executor.Executor {
	return exec
}

// SetForTesting replaces the application context with the given parts.
func SetForTesting(cfg *config.Config, serverStore repository.ServerStore, appStore repository.AppStore, e *executor.Executor) {
	appConfig = cfg
	servers = serverStore
	deployments = appStore
	exec = e
}
