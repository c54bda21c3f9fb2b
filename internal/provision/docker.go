// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package provision

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/samber/oops"
)

// ErrContainerNotFound is returned when the runtime has no container with
// the requested name or ID.
var ErrContainerNotFound = errors.New("container not found")

const mariadbPort = "3306/tcp"

// DockerBackend implements Backend against the local Docker daemon.
type DockerBackend struct {
	client *client.Client
}

// NewDockerBackend connects to the daemon using the standard environment
// configuration and verifies it is reachable before returning.
func NewDockerBackend() (*DockerBackend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, oops.Code("PROVISION_DOCKER_UNAVAILABLE").
			With("operation", "create docker client").
			Wrap(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, oops.Code("PROVISION_DOCKER_UNAVAILABLE").
			With("operation", "ping docker daemon").
			Wrap(err)
	}

	return &DockerBackend{client: cli}, nil
}

// CreateContainer pulls the image if needed, then creates and starts the
// container. A container that fails to start is removed so a retry with the
// same name does not collide with the dead one.
func (b *DockerBackend) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	if err := b.ensureImage(ctx, spec.Image); err != nil {
		return "", err
	}

	containerCfg := &container.Config{
		Image: spec.Image,
		Env:   spec.Env,
		Labels: map[string]string{
			"dbdock.managed": "true",
		},
		ExposedPorts: nat.PortSet{mariadbPort: struct{}{}},
	}

	hostPort := ""
	if spec.Port != 0 {
		hostPort = strconv.Itoa(int(spec.Port))
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			mariadbPort: []nat.PortBinding{{HostPort: hostPort}},
		},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	resp, err := b.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", oops.Code("PROVISION_CREATE_FAILED").
			With("container", spec.Name).
			With("image", spec.Image).
			Wrap(err)
	}

	if err := b.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = b.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", oops.Code("PROVISION_START_FAILED").
			With("container", spec.Name).
			Wrap(err)
	}

	return resp.ID, nil
}

// ContainerStatus inspects a container by name or ID.
func (b *DockerBackend) ContainerStatus(ctx context.Context, nameOrID string) (*ContainerStatus, error) {
	info, err := b.client.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, oops.Code("PROVISION_CONTAINER_NOT_FOUND").
				With("container", nameOrID).
				Wrap(ErrContainerNotFound)
		}
		return nil, oops.Code("PROVISION_INSPECT_FAILED").
			With("container", nameOrID).
			Wrap(err)
	}

	status := &ContainerStatus{
		ID:    info.ID,
		Name:  info.Name,
		Image: info.Config.Image,
	}
	if info.State != nil {
		status.State = info.State.Status
		status.Running = info.State.Running
	}
	return status, nil
}

// RemoveContainer stops and removes a container.
func (b *DockerBackend) RemoveContainer(ctx context.Context, nameOrID string) error {
	timeout := 10
	_ = b.client.ContainerStop(ctx, nameOrID, container.StopOptions{Timeout: &timeout})
	if err := b.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{Force: true}); err != nil {
		if client.IsErrNotFound(err) {
			return oops.Code("PROVISION_CONTAINER_NOT_FOUND").
				With("container", nameOrID).
				Wrap(ErrContainerNotFound)
		}
		return oops.Code("PROVISION_REMOVE_FAILED").
			With("container", nameOrID).
			Wrap(err)
	}
	return nil
}

// Close closes the Docker client.
func (b *DockerBackend) Close() error {
	return b.client.Close() //nolint:wrapcheck // shutdown path, caller only logs
}

func (b *DockerBackend) ensureImage(ctx context.Context, img string) error {
	if _, err := b.client.ImageInspect(ctx, img); err == nil {
		return nil
	}

	reader, err := b.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return oops.Code("PROVISION_PULL_FAILED").
			With("image", img).
			Wrap(err)
	}
	defer reader.Close()
	// The pull completes only once the stream is drained.
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// Compile-time interface check.
var _ Backend = (*DockerBackend)(nil)
