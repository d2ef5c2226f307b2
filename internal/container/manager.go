// Package container provides the Docker-backed execution environment for
// builds that run inside a container instead of on the host.
package container

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Manager owns the Docker client used for containerized builds. It is
// constructed once per build invocation; container lifecycle beyond image
// preparation is driven by the build steps themselves.
type Manager struct {
	cli       *client.Client
	networkID string
	skipPull  bool
}

// NewManager creates a Docker client from the environment with API version
// negotiation. networkID, when non-empty, is the Docker network build
// containers are attached to. skipPull suppresses image pulls, relying on
// locally cached images instead.
func NewManager(networkID string, skipPull bool) (*Manager, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &Manager{
		cli:       cli,
		networkID: networkID,
		skipPull:  skipPull,
	}, nil
}

// NetworkID returns the configured Docker network identifier, or "" when the
// default network is used.
func (m *Manager) NetworkID() string {
	return m.networkID
}

// SkipPull reports whether image pulls are suppressed.
func (m *Manager) SkipPull() bool {
	return m.skipPull
}

// Ping checks that the Docker daemon is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return nil
}

// PullImage pulls the given image reference, honoring the skip-pull setting.
// When pulls are skipped the image must already exist locally; a missing
// image surfaces later, when a build container is created from it.
func (m *Manager) PullImage(ctx context.Context, ref string) error {
	if m.skipPull {
		return nil
	}

	reader, err := m.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	// Drain the reader to complete the pull
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}

	return nil
}

// Close releases the Docker client connection.
func (m *Manager) Close() error {
	return m.cli.Close()
}
