// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/visdata/authz-service/pkg/catalog"
	"github.com/visdata/authz-service/pkg/codec"
	"github.com/visdata/authz-service/pkg/constants"
	"github.com/visdata/authz-service/pkg/fga"
	"github.com/visdata/authz-service/pkg/permission"
)

// RoleService administers custom roles: creation, permission grants and
// user assignment. System roles (admin, editor, viewer) are fixed and
// rejected everywhere a role name is written.
type RoleService struct {
	store  TupleStore
	logger *slog.Logger
}

// NewRoleService builds a RoleService.
func NewRoleService(store TupleStore, logger *slog.Logger) *RoleService {
	return &RoleService{store: store, logger: logger}
}

// Create registers a custom role in orgID. The name must not collide
// with a system role or an existing custom role, case-insensitively.
func (s *RoleService) Create(ctx context.Context, orgID, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty role name", fga.ErrValidation)
	}
	if constants.IsSystemRole(name) {
		return fmt.Errorf("%w: %q is a reserved role name", fga.ErrValidation, name)
	}
	existing, err := s.List(ctx, orgID)
	if err != nil {
		return err
	}
	for _, r := range existing {
		if strings.EqualFold(r, name) {
			return fmt.Errorf("%w: role %q", fga.ErrDuplicateEntry, name)
		}
	}
	return s.store.Write(ctx, []fga.TupleKey{{
		User:     codec.OrgObject(orgID),
		Relation: constants.RelationOwningOrg,
		Object:   codec.RoleObject(orgID, name),
	}}, nil)
}

// List returns the org's custom role names, sorted.
func (s *RoleService) List(ctx context.Context, orgID string) ([]string, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     codec.OrgObject(orgID),
		Relation: constants.RelationOwningOrg,
	})
	if err != nil {
		return nil, err
	}
	prefix := constants.ObjectTypeRole + orgID + "_"
	var names []string
	for _, t := range tuples {
		name, found := strings.CutPrefix(t.Key.Object, prefix)
		if !found || constants.IsSystemRole(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetAll returns role names for user administration: the custom roles,
// preceded by the system roles when includeSystem is set.
func (s *RoleService) GetAll(ctx context.Context, orgID string, includeSystem bool) ([]string, error) {
	custom, err := s.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !includeSystem {
		return custom, nil
	}
	return append(append([]string{}, constants.SystemRoles...), custom...), nil
}

// exists reports whether the role's owningOrg tuple is present.
func (s *RoleService) exists(ctx context.Context, orgID, name string) (bool, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     codec.OrgObject(orgID),
		Relation: constants.RelationOwningOrg,
		Object:   codec.RoleObject(orgID, name),
	})
	if err != nil {
		return false, err
	}
	return len(tuples) > 0, nil
}

// Delete removes the role and everything hanging off it: its ownership
// and assignment tuples plus every permission it granted.
func (s *RoleService) Delete(ctx context.Context, orgID, name string) error {
	if constants.IsSystemRole(name) {
		return fmt.Errorf("%w: %q is a reserved role name", fga.ErrValidation, name)
	}
	roleObj := codec.RoleObject(orgID, name)

	onRole, err := s.store.Read(ctx, &fga.ReadFilter{Object: roleObj})
	if err != nil {
		return err
	}
	grants, err := s.store.Read(ctx, &fga.ReadFilter{User: codec.RoleGrantSubject(roleObj)})
	if err != nil {
		return err
	}
	if len(onRole) == 0 && len(grants) == 0 {
		return fmt.Errorf("%w: %q", fga.ErrRoleNotFound, name)
	}

	deletes := make([]fga.TupleKey, 0, len(onRole)+len(grants))
	for _, t := range onRole {
		deletes = append(deletes, t.Key)
	}
	for _, t := range grants {
		deletes = append(deletes, t.Key)
	}
	s.logger.Info("deleting role", "org", orgID, "role", name, "tuples", len(deletes))
	return s.store.Write(ctx, nil, deletes)
}

// GetRoleUsers returns the emails directly assigned to the role, sorted.
func (s *RoleService) GetRoleUsers(ctx context.Context, orgID, name string) ([]string, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		Relation: constants.RelationAssigned,
		Object:   codec.RoleObject(orgID, name),
	})
	if err != nil {
		return nil, err
	}
	var users []string
	for _, t := range tuples {
		if email, found := strings.CutPrefix(t.Key.User, constants.ObjectTypeUser); found {
			users = append(users, email)
		}
	}
	sort.Strings(users)
	return users, nil
}

// GetRolePermissions returns the role's permission grants, optionally
// filtered to one resource type.
func (s *RoleService) GetRolePermissions(ctx context.Context, orgID, name, resourceType string) ([]PermissionEntry, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		User: codec.RoleGrantSubject(codec.RoleObject(orgID, name)),
	})
	if err != nil {
		return nil, err
	}
	var entries []PermissionEntry
	for _, t := range tuples {
		objType, _, ok := codec.ParseObject(t.Key.Object)
		if !ok {
			continue
		}
		if resourceType != "" && objType != resourceType {
			continue
		}
		entries = append(entries, PermissionEntry{
			Object:     t.Key.Object,
			Permission: permission.FromAPIRelation(t.Key.Relation).String(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Object != entries[j].Object {
			return entries[i].Object < entries[j].Object
		}
		return entries[i].Permission < entries[j].Permission
	})
	return entries, nil
}

// permissionTuples validates entries and converts them to grant tuples.
// Validation fails fast: one bad entry rejects the whole request.
func (s *RoleService) permissionTuples(orgID, name string, entries []PermissionEntry) ([]fga.TupleKey, error) {
	subject := codec.RoleGrantSubject(codec.RoleObject(orgID, name))
	tuples := make([]fga.TupleKey, 0, len(entries))
	for _, e := range entries {
		resourceType, entityID, ok := codec.ParseObject(e.Object)
		if !ok {
			return nil, fmt.Errorf("%w: object %q has no type separator", fga.ErrValidation, e.Object)
		}
		if !catalog.IsValid(resourceType) {
			return nil, fmt.Errorf("%w: %q", fga.ErrInvalidResourceType, resourceType)
		}
		perm, ok := permission.FromString(e.Permission)
		if !ok {
			return nil, fmt.Errorf("%w: %q", fga.ErrInvalidPermission, e.Permission)
		}
		object := e.Object
		if codec.IsAllOrgEntity(entityID, orgID) {
			object = codec.ResourceObjectAll(orgID, resourceType)
		}
		tuples = append(tuples, fga.TupleKey{
			User:     subject,
			Relation: perm.APIRelation(),
			Object:   object,
		})
	}
	return tuples, nil
}

// AddPermissions grants entries to the role.
func (s *RoleService) AddPermissions(ctx context.Context, orgID, name string, entries []PermissionEntry) error {
	tuples, err := s.permissionTuples(orgID, name, entries)
	if err != nil {
		return err
	}
	return s.store.Write(ctx, tuples, nil)
}

// RemovePermissions revokes entries from the role.
func (s *RoleService) RemovePermissions(ctx context.Context, orgID, name string, entries []PermissionEntry) error {
	tuples, err := s.permissionTuples(orgID, name, entries)
	if err != nil {
		return err
	}
	return s.store.Write(ctx, nil, tuples)
}

// AddUsers assigns emails to the role. An empty list is a no-op.
func (s *RoleService) AddUsers(ctx context.Context, orgID, name string, emails []string) error {
	return s.store.Write(ctx, s.userTuples(orgID, name, emails), nil)
}

// RemoveUsers unassigns emails from the role. An empty list is a no-op.
func (s *RoleService) RemoveUsers(ctx context.Context, orgID, name string, emails []string) error {
	return s.store.Write(ctx, nil, s.userTuples(orgID, name, emails))
}

func (s *RoleService) userTuples(orgID, name string, emails []string) []fga.TupleKey {
	tuples := make([]fga.TupleKey, 0, len(emails))
	for _, email := range emails {
		tuples = append(tuples, UserRoleTuple(orgID, email, name))
	}
	return tuples
}

// GetRole returns the API view of one custom role.
func (s *RoleService) GetRole(ctx context.Context, orgID, name string) (*RoleResponse, error) {
	ok, err := s.exists(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", fga.ErrRoleNotFound, name)
	}
	users, err := s.GetRoleUsers(ctx, orgID, name)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMicro()
	return &RoleResponse{
		Name:      name,
		Label:     capitalize(name),
		Users:     users,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SystemRoleOptions returns the fixed role choices.
func SystemRoleOptions() []UserRoleOption {
	options := make([]UserRoleOption, 0, len(constants.SystemRoles))
	for _, r := range constants.SystemRoles {
		options = append(options, UserRoleOption{Label: capitalize(r), Value: r})
	}
	return options
}

// CustomRoleOptions returns the org's custom roles as choices.
func (s *RoleService) CustomRoleOptions(ctx context.Context, orgID string) ([]UserRoleOption, error) {
	names, err := s.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	options := make([]UserRoleOption, 0, len(names))
	for _, name := range names {
		options = append(options, UserRoleOption{Label: capitalize(name), Value: name})
	}
	return options, nil
}
