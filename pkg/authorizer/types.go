// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// Package authorizer implements permission checking and the
// administration of roles, groups and org membership on top of the
// tuple store.
package authorizer

import (
	"context"
	"strings"

	"github.com/visdata/authz-service/pkg/fga"
)

// TupleStore is the slice of the tuple-store gateway the authorizer
// needs. *fga.Gateway satisfies it.
type TupleStore interface {
	Check(ctx context.Context, key fga.TupleKey) (bool, error)
	Write(ctx context.Context, writes, deletes []fga.TupleKey) error
	Read(ctx context.Context, filter *fga.ReadFilter) ([]fga.Tuple, error)
	ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error)
}

// PermissionEntry is one object/permission pair on a role.
type PermissionEntry struct {
	// Object is "type:entity"; entity may be an org-wide wildcard.
	Object string `json:"object"`
	// Permission is the API-facing permission name, e.g. "AllowGet".
	Permission string `json:"permission"`
}

// RoleResponse is the API view of a custom role.
type RoleResponse struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Users     []string `json:"users"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// GroupResponse is the API view of a group.
type GroupResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Roles       []string `json:"roles"`
	Users       []string `json:"users"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// UserRoleOption is a role choice presented in user administration.
type UserRoleOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
