// Package update checks the running CLI version against the newest release
// published by the backend.
package update

import (
	"context"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/linguara-ai/linguara-cli/internal/api"
)

// ReleaseSource provides the latest published release. *api.Client satisfies it.
type ReleaseSource interface {
	LatestRelease(ctx context.Context) (*api.Release, error)
}

// Check is the outcome of a version check.
type Check struct {
	Current  string
	Latest   string
	URL      string
	Outdated bool
}

// CheckLatest compares current against the newest published release.
// Development builds ("dev") are never reported as outdated.
func CheckLatest(ctx context.Context, source ReleaseSource, current string) (*Check, error) {
	release, err := source.LatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}

	check := &Check{
		Current: current,
		Latest:  release.Version,
		URL:     release.URL,
	}

	if current == "" || current == "dev" {
		return check, nil
	}

	cur, err := goversion.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return nil, fmt.Errorf("parse current version %q: %w", current, err)
	}
	latest, err := goversion.NewVersion(strings.TrimPrefix(release.Version, "v"))
	if err != nil {
		return nil, fmt.Errorf("parse latest version %q: %w", release.Version, err)
	}

	check.Outdated = cur.LessThan(latest)
	return check, nil
}
