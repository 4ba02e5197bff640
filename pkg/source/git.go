// Package source fetches code to check from places other than the local
// file system.
package source

import (
	"context"
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v5"

	"github.com/spicery/astdoc/pkg/logger"
)

// CloneRepo clones the repository at url into a new temporary directory and
// returns its path. depth limits the history fetched; 0 fetches all of it.
// The caller removes the directory.
func CloneRepo(ctx context.Context, url string, depth int) (string, error) {
	dir, err := os.MkdirTemp("", "astdoc-git-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	logger.L().Debug("cloning repository", "url", url, "dir", dir, "depth", depth)
	_, err = gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:          url,
		Depth:        depth,
		SingleBranch: depth > 0,
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to clone '%s': %w", url, err)
	}
	return dir, nil
}
