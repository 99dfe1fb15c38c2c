// Package watcher redeploys a bundle whenever its content changes.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Deployer deploys one version of the bundle.
type Deployer interface {
	Deploy(ctx context.Context, bundle []byte) error
}

type BundleWatcher struct {
	path         string
	deployer     Deployer
	pollInterval time.Duration

	lastDigest string
}

func NewBundleWatcher(path string, deployer Deployer, pollInterval time.Duration) *BundleWatcher {
	return &BundleWatcher{
		path:         path,
		deployer:     deployer,
		pollInterval: pollInterval,
	}
}

// Start checks the bundle right away and then once per poll interval until
// ctx is done.
func (w *BundleWatcher) Start(ctx context.Context) error {
	slog.Info("Watcher starting", "layer", "watcher", "path", w.path, "poll_interval", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	if _, err := w.checkBundle(ctx); err != nil {
		slog.Error("Initial bundle check failed", "layer", "watcher", "path", w.path, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watcher shutting down", "layer", "watcher", "path", w.path)
			return nil
		case <-ticker.C:
			if _, err := w.checkBundle(ctx); err != nil {
				slog.Error("Bundle check failed", "layer", "watcher", "path", w.path, "error", err)
			}
		}
	}
}

// checkBundle deploys the bundle when its digest differs from the last one
// deployed and reports whether it did. A failed deploy still marks the
// content as seen; the next attempt waits for the next change.
func (w *BundleWatcher) checkBundle(ctx context.Context) (bool, error) {
	bundle, err := os.ReadFile(w.path)
	if err != nil {
		return false, fmt.Errorf("failed to read bundle: %w", err)
	}

	sum := sha256.Sum256(bundle)
	digest := hex.EncodeToString(sum[:])
	if digest == w.lastDigest {
		slog.Debug("Bundle unchanged", "layer", "watcher", "path", w.path, "digest", digest)
		return false, nil
	}

	slog.Info("Bundle changed, deploying",
		"layer", "watcher",
		"path", w.path,
		"old_digest", w.lastDigest,
		"new_digest", digest)

	w.lastDigest = digest
	if err := w.deployer.Deploy(ctx, bundle); err != nil {
		return true, fmt.Errorf("failed to deploy bundle: %w", err)
	}

	slog.Info("Automatic deployment completed", "layer", "watcher", "path", w.path, "digest", digest)
	return true, nil
}
