// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"errors"
	"fmt"
)

// errKey is the structured-log attribute key for errors.
const errKey = "error"

// Sentinel errors returned by the gateway and the services built on it.
var (
	// ErrNotInitialized means the gateway has no store or model id yet.
	ErrNotInitialized = errors.New("fga: backend not initialized")
	// ErrModelNotFound means the store has no authorization model.
	ErrModelNotFound = errors.New("fga: authorization model not found")
	// ErrRoleNotFound means the named custom role does not exist.
	ErrRoleNotFound = errors.New("fga: role not found")
	// ErrGroupNotFound means the named group does not exist.
	ErrGroupNotFound = errors.New("fga: group not found")
	// ErrInvalidPermission means a permission string failed to parse.
	ErrInvalidPermission = errors.New("fga: invalid permission")
	// ErrInvalidResourceType means an object named an unknown resource type.
	ErrInvalidResourceType = errors.New("fga: invalid resource type")
	// ErrDuplicateEntry means a role or group with that name already exists.
	ErrDuplicateEntry = errors.New("fga: duplicate entry")
	// ErrValidation means the request was structurally invalid.
	ErrValidation = errors.New("fga: validation failed")
)

// BackendError wraps a failure from the OpenFGA backend with the
// operation that caused it. Permission checks treat any BackendError as
// a deny; administrative operations propagate it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("fga: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}
