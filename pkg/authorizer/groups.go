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

	"github.com/google/uuid"

	"github.com/visdata/authz-service/pkg/codec"
	"github.com/visdata/authz-service/pkg/constants"
	"github.com/visdata/authz-service/pkg/fga"
)

// GroupService administers groups and resolves the user, group, role
// chain. A user reaches a role either by direct assignment or through
// membership in a group the role is attached to.
type GroupService struct {
	store  TupleStore
	logger *slog.Logger
}

// NewGroupService builds a GroupService.
func NewGroupService(store TupleStore, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

// Create registers a group in orgID and returns its API view. The name
// must be unique in the org, case-insensitively.
func (s *GroupService) Create(ctx context.Context, orgID, name, description string) (*GroupResponse, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty group name", fga.ErrValidation)
	}
	existing, err := s.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, g := range existing {
		if strings.EqualFold(g, name) {
			return nil, fmt.Errorf("%w: group %q", fga.ErrDuplicateEntry, name)
		}
	}
	err = s.store.Write(ctx, []fga.TupleKey{{
		User:     codec.OrgObject(orgID),
		Relation: constants.RelationOwningOrg,
		Object:   codec.GroupObject(orgID, name),
	}}, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMicro()
	return &GroupResponse{
		ID:          uuid.NewString(),
		Name:        name,
		DisplayName: capitalize(name),
		Description: description,
		Roles:       []string{},
		Users:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// List returns the org's group names, sorted. Groups written before the
// owningOrg tuple existed are discovered through their member edges.
func (s *GroupService) List(ctx context.Context, orgID string) ([]string, error) {
	prefix := constants.ObjectTypeGroup + orgID + "_"
	seen := map[string]bool{}

	owned, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     codec.OrgObject(orgID),
		Relation: constants.RelationOwningOrg,
	})
	if err != nil {
		return nil, err
	}
	for _, t := range owned {
		if name, found := strings.CutPrefix(t.Key.Object, prefix); found {
			seen[name] = true
		}
	}

	members, err := s.store.Read(ctx, &fga.ReadFilter{Relation: constants.RelationMember})
	if err != nil {
		return nil, err
	}
	for _, t := range members {
		if name, found := strings.CutPrefix(t.Key.Object, prefix); found {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the API view of one group: its members and attached roles.
func (s *GroupService) Get(ctx context.Context, orgID, name string) (*GroupResponse, error) {
	groupObj := codec.GroupObject(orgID, name)

	users, err := s.groupUsers(ctx, groupObj)
	if err != nil {
		return nil, err
	}
	roles, err := s.groupRoles(ctx, orgID, groupObj)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 && len(roles) == 0 {
		// Distinguish an empty group from a missing one.
		probe, err := s.store.Read(ctx, &fga.ReadFilter{Object: groupObj})
		if err != nil {
			return nil, err
		}
		if len(probe) == 0 {
			return nil, fmt.Errorf("%w: %q", fga.ErrGroupNotFound, name)
		}
	}

	now := time.Now().UnixMicro()
	return &GroupResponse{
		Name:        name,
		DisplayName: capitalize(name),
		Roles:       roles,
		Users:       users,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Delete removes the group's ownership, membership and role tuples. The
// subject filter uses the bare group object, not "<group>#member": role
// attachments are written with the bare group as subject, so filtering
// on the member userset would orphan them.
func (s *GroupService) Delete(ctx context.Context, orgID, name string) error {
	groupObj := codec.GroupObject(orgID, name)

	onGroup, err := s.store.Read(ctx, &fga.ReadFilter{Object: groupObj})
	if err != nil {
		return err
	}
	attached, err := s.store.Read(ctx, &fga.ReadFilter{User: groupObj})
	if err != nil {
		return err
	}
	if len(onGroup) == 0 && len(attached) == 0 {
		return fmt.Errorf("%w: %q", fga.ErrGroupNotFound, name)
	}

	deletes := make([]fga.TupleKey, 0, len(onGroup)+len(attached))
	for _, t := range onGroup {
		deletes = append(deletes, t.Key)
	}
	for _, t := range attached {
		deletes = append(deletes, t.Key)
	}
	s.logger.Info("deleting group", "org", orgID, "group", name, "tuples", len(deletes))
	return s.store.Write(ctx, nil, deletes)
}

// AddUsers adds emails as members. An empty list is a no-op.
func (s *GroupService) AddUsers(ctx context.Context, orgID, name string, emails []string) error {
	return s.store.Write(ctx, s.memberTuples(orgID, name, emails), nil)
}

// RemoveUsers removes emails from the group. An empty list is a no-op.
func (s *GroupService) RemoveUsers(ctx context.Context, orgID, name string, emails []string) error {
	return s.store.Write(ctx, nil, s.memberTuples(orgID, name, emails))
}

// AddRoles attaches roles to the group. An empty list is a no-op.
func (s *GroupService) AddRoles(ctx context.Context, orgID, name string, roles []string) error {
	return s.store.Write(ctx, s.roleTuples(orgID, name, roles), nil)
}

// RemoveRoles detaches roles from the group. An empty list is a no-op.
func (s *GroupService) RemoveRoles(ctx context.Context, orgID, name string, roles []string) error {
	return s.store.Write(ctx, nil, s.roleTuples(orgID, name, roles))
}

func (s *GroupService) memberTuples(orgID, name string, emails []string) []fga.TupleKey {
	tuples := make([]fga.TupleKey, 0, len(emails))
	for _, email := range emails {
		tuples = append(tuples, GroupMemberTuple(orgID, name, email))
	}
	return tuples
}

func (s *GroupService) roleTuples(orgID, name string, roles []string) []fga.TupleKey {
	tuples := make([]fga.TupleKey, 0, len(roles))
	for _, role := range roles {
		tuples = append(tuples, GroupRoleTuple(orgID, name, role))
	}
	return tuples
}

// UserGroups returns the names of the org's groups email belongs to,
// sorted.
func (s *GroupService) UserGroups(ctx context.Context, orgID, email string) ([]string, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     codec.UserObject(email),
		Relation: constants.RelationMember,
	})
	if err != nil {
		return nil, err
	}
	prefix := constants.ObjectTypeGroup + orgID + "_"
	var groups []string
	for _, t := range tuples {
		if name, found := strings.CutPrefix(t.Key.Object, prefix); found {
			groups = append(groups, name)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

// UserRoles returns every custom role email holds in the org, directly
// assigned or inherited through group membership, deduplicated and
// sorted.
func (s *GroupService) UserRoles(ctx context.Context, orgID, email string) ([]string, error) {
	rolePrefix := constants.ObjectTypeRole + orgID + "_"
	seen := map[string]bool{}

	direct, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     codec.UserObject(email),
		Relation: constants.RelationAssigned,
	})
	if err != nil {
		return nil, err
	}
	for _, t := range direct {
		if name, found := strings.CutPrefix(t.Key.Object, rolePrefix); found {
			seen[name] = true
		}
	}

	groups, err := s.UserGroups(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		attached, err := s.store.Read(ctx, &fga.ReadFilter{
			User:     codec.GroupObject(orgID, group),
			Relation: constants.RelationGroupAssigned,
		})
		if err != nil {
			return nil, err
		}
		for _, t := range attached {
			if name, found := strings.CutPrefix(t.Key.Object, rolePrefix); found {
				seen[name] = true
			}
		}
	}

	roles := make([]string, 0, len(seen))
	for name := range seen {
		roles = append(roles, name)
	}
	sort.Strings(roles)
	return roles, nil
}

func (s *GroupService) groupUsers(ctx context.Context, groupObj string) ([]string, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		Relation: constants.RelationMember,
		Object:   groupObj,
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

func (s *GroupService) groupRoles(ctx context.Context, orgID, groupObj string) ([]string, error) {
	tuples, err := s.store.Read(ctx, &fga.ReadFilter{
		User:     groupObj,
		Relation: constants.RelationGroupAssigned,
	})
	if err != nil {
		return nil, err
	}
	prefix := constants.ObjectTypeRole + orgID + "_"
	var roles []string
	for _, t := range tuples {
		if name, found := strings.CutPrefix(t.Key.Object, prefix); found {
			roles = append(roles, name)
		}
	}
	sort.Strings(roles)
	return roles, nil
}
