// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 dbdock Contributors

package provision

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/samber/oops"
)

// MariaDBImage is the image provisioned for MariaDB instances.
const MariaDBImage = "mariadb"

// containerPrefix namespaces managed containers so Status and Remove cannot
// reach containers this service did not create.
const containerPrefix = "dbdock-"

// namePattern restricts instance names to what both Docker and DNS accept.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// MariaDBRequest describes a MariaDB instance to provision. Database, User
// and Password are optional; when User is set, Password must be too.
type MariaDBRequest struct {
	Name         string
	RootPassword string
	Database     string
	User         string
	Password     string
	Port         uint16
}

// Container identifies a provisioned container.
type Container struct {
	ID   string
	Name string
}

// Service validates provisioning requests and drives the backend.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService creates a new Service.
func NewService(backend Backend, logger *slog.Logger) (*Service, error) {
	if backend == nil {
		return nil, oops.Code("PROVISION_INVALID_DEPENDENCY").Errorf("backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, logger: logger}, nil
}

// CreateMariaDB provisions and starts a MariaDB container for req.
func (s *Service) CreateMariaDB(ctx context.Context, req MariaDBRequest) (*Container, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	env := []string{"MARIADB_ROOT_PASSWORD=" + req.RootPassword}
	if req.Database != "" {
		env = append(env, "MARIADB_DATABASE="+req.Database)
	}
	if req.User != "" {
		env = append(env,
			"MARIADB_USER="+req.User,
			"MARIADB_PASSWORD="+req.Password,
		)
	}

	name := containerPrefix + req.Name
	id, err := s.backend.CreateContainer(ctx, ContainerSpec{
		Name:  name,
		Image: MariaDBImage,
		Env:   env,
		Port:  req.Port,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // backend errors already carry codes
	}

	s.logger.Info("mariadb container provisioned",
		"container", name,
		"container_id", id,
		"host_port", req.Port,
	)

	return &Container{ID: id, Name: name}, nil
}

// Status inspects a managed container by instance name.
func (s *Service) Status(ctx context.Context, name string) (*ContainerStatus, error) {
	if !namePattern.MatchString(name) {
		return nil, oops.Code("PROVISION_INVALID_NAME").
			Errorf("instance name must match %s", namePattern)
	}
	status, err := s.backend.ContainerStatus(ctx, containerPrefix+name)
	if err != nil {
		return nil, err //nolint:wrapcheck // backend errors already carry codes
	}
	return status, nil
}

// Remove stops and removes a managed container by instance name.
func (s *Service) Remove(ctx context.Context, name string) error {
	if !namePattern.MatchString(name) {
		return oops.Code("PROVISION_INVALID_NAME").
			Errorf("instance name must match %s", namePattern)
	}
	if err := s.backend.RemoveContainer(ctx, containerPrefix+name); err != nil {
		return err //nolint:wrapcheck // backend errors already carry codes
	}
	s.logger.Info("mariadb container removed", "container", containerPrefix+name)
	return nil
}

func (r MariaDBRequest) validate() error {
	if !namePattern.MatchString(r.Name) {
		return oops.Code("PROVISION_INVALID_NAME").
			Errorf("instance name must match %s", namePattern)
	}
	if r.RootPassword == "" {
		return oops.Code("PROVISION_INVALID_REQUEST").Errorf("root password cannot be empty")
	}
	if r.User != "" && r.Password == "" {
		return oops.Code("PROVISION_INVALID_REQUEST").Errorf("password is required when user is set")
	}
	if r.User == "" && r.Password != "" {
		return oops.Code("PROVISION_INVALID_REQUEST").Errorf("user is required when password is set")
	}
	return nil
}
