// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

// Package provision manages database containers on the local Docker daemon.
package provision

import "context"

// ContainerSpec describes a container to create.
type ContainerSpec struct {
	Name  string
	Image string
	Env   []string
	// Port maps container port 3306/tcp to this host port. Zero lets the
	// daemon pick an ephemeral port.
	Port uint16
}

// ContainerStatus is a point-in-time view of a managed container.
type ContainerStatus struct {
	ID      string
	Name    string
	Image   string
	State   string // created, running, paused, exited, dead
	Running bool
}

// Backend abstracts the container runtime. The production implementation
// talks to the Docker daemon; tests substitute a fake.
type Backend interface {
	// CreateContainer creates and starts a container, pulling the image
	// first if it is not present locally. Returns the container ID.
	CreateContainer(ctx context.Context, spec ContainerSpec) (string, error)

	// ContainerStatus inspects a container by name or ID.
	// Returns ErrContainerNotFound if the runtime does not know it.
	ContainerStatus(ctx context.Context, nameOrID string) (*ContainerStatus, error)

	// RemoveContainer stops and removes a container.
	RemoveContainer(ctx context.Context, nameOrID string) error

	// Close releases the runtime connection.
	Close() error
}
