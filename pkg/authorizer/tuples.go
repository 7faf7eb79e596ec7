// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/visdata/authz-service/pkg/codec"
	"github.com/visdata/authz-service/pkg/constants"
	"github.com/visdata/authz-service/pkg/fga"
	"github.com/visdata/authz-service/pkg/permission"
)

// RoleToRelation maps a platform role name to the org relation it is
// stored as. Every unrecognized role, including plain users and service
// accounts, becomes allowed_user.
func RoleToRelation(role string) string {
	switch strings.ToLower(role) {
	case "root", "admin":
		return constants.RelationAdmin
	case "editor":
		return constants.RelationEditor
	case "viewer":
		return constants.RelationViewer
	default:
		return constants.RelationAllowedUser
	}
}

// AddUserToOrgTuples returns the tuple pair written when a user joins an
// org: the role relation and the org_context marker. The pair must stay
// together; permission evaluation intersects the two.
func AddUserToOrgTuples(orgID, email, role string) []fga.TupleKey {
	user := codec.UserObject(email)
	org := codec.OrgObject(orgID)
	return []fga.TupleKey{
		{User: user, Relation: RoleToRelation(role), Object: org},
		{User: user, Relation: constants.RelationOrgContext, Object: org},
	}
}

// RemoveUserWithRoleTuples returns the tuple pair deleted when the
// user's current role is known.
func RemoveUserWithRoleTuples(orgID, email, role string) []fga.TupleKey {
	return AddUserToOrgTuples(orgID, email, role)
}

// RemoveUserAllTuples returns one delete per possible org relation.
// Used when the user's role is unknown; deleting a missing tuple is
// filtered out upstream by reading first.
func RemoveUserAllTuples(orgID, email string) []fga.TupleKey {
	user := codec.UserObject(email)
	org := codec.OrgObject(orgID)
	relations := []string{
		constants.RelationAdmin,
		constants.RelationEditor,
		constants.RelationViewer,
		constants.RelationAllowedUser,
		constants.RelationOrgContext,
	}
	tuples := make([]fga.TupleKey, 0, len(relations))
	for _, rel := range relations {
		tuples = append(tuples, fga.TupleKey{User: user, Relation: rel, Object: org})
	}
	return tuples
}

// UserRoleTuple returns the assignment tuple of a user to a custom role.
func UserRoleTuple(orgID, email, roleName string) fga.TupleKey {
	return fga.TupleKey{
		User:     codec.UserObject(email),
		Relation: constants.RelationAssigned,
		Object:   codec.RoleObject(orgID, roleName),
	}
}

// GroupMemberTuple returns the membership tuple of a user in a group.
func GroupMemberTuple(orgID, groupName, email string) fga.TupleKey {
	return fga.TupleKey{
		User:     codec.UserObject(email),
		Relation: constants.RelationMember,
		Object:   codec.GroupObject(orgID, groupName),
	}
}

// GroupRoleTuple returns the attachment tuple of a custom role to a
// group. Members of the group then reach the role through grp_assigned.
func GroupRoleTuple(orgID, groupName, roleName string) fga.TupleKey {
	return fga.TupleKey{
		User:     codec.GroupObject(orgID, groupName),
		Relation: constants.RelationGroupAssigned,
		Object:   codec.RoleObject(orgID, roleName),
	}
}

// OwnershipTuple marks email as the owner of object.
func OwnershipTuple(email, object string) fga.TupleKey {
	return fga.TupleKey{
		User:     codec.UserObject(email),
		Relation: constants.RelationOwner,
		Object:   object,
	}
}

// ResourceParentTuple links a child object under its parent so that
// permission checks inherit downward.
func ResourceParentTuple(parentObject, childObject string) fga.TupleKey {
	return fga.TupleKey{
		User:     parentObject,
		Relation: constants.RelationParent,
		Object:   childObject,
	}
}

// OrgResourcePermissionTuple grants a role's holders perm on every
// entity of resourceType in the org.
func OrgResourcePermissionTuple(orgID, roleName, resourceType string, perm permission.Permission) fga.TupleKey {
	return fga.TupleKey{
		User:     codec.RoleGrantSubject(codec.RoleObject(orgID, roleName)),
		Relation: perm.APIRelation(),
		Object:   codec.ResourceObjectAll(orgID, resourceType),
	}
}

// ServiceAccountTuples returns the org tuples for a service account,
// which always enters as allowed_user.
func ServiceAccountTuples(orgID, email string) []fga.TupleKey {
	return AddUserToOrgTuples(orgID, email, "service_account")
}

// NewUserTuples returns the tuples for a freshly registered user joining
// defaultOrg with the plain user role.
func NewUserTuples(email, defaultOrg string) []fga.TupleKey {
	return AddUserToOrgTuples(defaultOrg, email, "user")
}

// DeleteUserFromOrgTuples returns the legacy relation deletes kept for
// tuples written before the role relations were split out.
func DeleteUserFromOrgTuples(orgID, email string) []fga.TupleKey {
	user := codec.UserObject(email)
	org := codec.OrgObject(orgID)
	return []fga.TupleKey{
		{User: user, Relation: constants.RelationOwner, Object: org},
		{User: user, Relation: constants.RelationAdmin, Object: org},
		{User: user, Relation: constants.RelationMember, Object: org},
	}
}

// OrgCreationTuples returns the org's self-membership marker plus its
// structural resource tuples.
func OrgCreationTuples(orgID string) []fga.TupleKey {
	org := codec.OrgObject(orgID)
	tuples := []fga.TupleKey{
		{User: org, Relation: constants.RelationMember, Object: org},
	}
	return append(tuples, fga.OrgSeedTuples(orgID)...)
}

// deleteChunkSize bounds a single delete batch against the backend.
const deleteChunkSize = 50

// OrgService maintains org membership and org lifecycle tuples.
type OrgService struct {
	store  TupleStore
	logger *slog.Logger
}

// NewOrgService builds an OrgService.
func NewOrgService(store TupleStore, logger *slog.Logger) *OrgService {
	return &OrgService{store: store, logger: logger}
}

// AddUser writes the role and org_context tuples for email in orgID.
func (s *OrgService) AddUser(ctx context.Context, orgID, email, role string) error {
	return s.store.Write(ctx, AddUserToOrgTuples(orgID, email, role), nil)
}

// RemoveUserWithRole deletes the user's tuples when the role is known.
func (s *OrgService) RemoveUserWithRole(ctx context.Context, orgID, email, role string) error {
	return s.store.Write(ctx, nil, RemoveUserWithRoleTuples(orgID, email, role))
}

// RemoveUser deletes every org tuple email has in orgID. The user's
// actual tuples are read first so that only existing ones are deleted.
func (s *OrgService) RemoveUser(ctx context.Context, orgID, email string) error {
	existing, err := s.store.Read(ctx, &fga.ReadFilter{
		User:   codec.UserObject(email),
		Object: codec.OrgObject(orgID),
	})
	if err != nil {
		return err
	}
	candidates := map[fga.TupleKey]bool{}
	for _, t := range RemoveUserAllTuples(orgID, email) {
		candidates[t] = true
	}
	var deletes []fga.TupleKey
	for _, t := range existing {
		if candidates[t.Key] {
			deletes = append(deletes, t.Key)
		}
	}
	return s.store.Write(ctx, nil, deletes)
}

// UpdateUserRole moves email from oldRole to newRole in one write. Roles
// mapping to the same relation are a no-op; the org_context tuple is
// never touched.
func (s *OrgService) UpdateUserRole(ctx context.Context, orgID, email, oldRole, newRole string) error {
	oldRel := RoleToRelation(oldRole)
	newRel := RoleToRelation(newRole)
	if oldRel == newRel {
		return nil
	}
	user := codec.UserObject(email)
	org := codec.OrgObject(orgID)
	return s.store.Write(ctx,
		[]fga.TupleKey{{User: user, Relation: newRel, Object: org}},
		[]fga.TupleKey{{User: user, Relation: oldRel, Object: org}},
	)
}

// SaveOrg writes the structural tuples for a new org.
func (s *OrgService) SaveOrg(ctx context.Context, orgID string) error {
	tuples := OrgCreationTuples(orgID)
	for start := 0; start < len(tuples); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(tuples))
		if err := s.store.Write(ctx, tuples[start:end], nil); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrg removes every tuple on the org object and every tuple the
// org owns.
func (s *OrgService) DeleteOrg(ctx context.Context, orgID string) error {
	org := codec.OrgObject(orgID)

	onOrg, err := s.store.Read(ctx, &fga.ReadFilter{Object: org})
	if err != nil {
		return err
	}
	owned, err := s.store.Read(ctx, &fga.ReadFilter{User: org})
	if err != nil {
		return err
	}

	// The org's self-membership tuple shows up in both reads; dedupe so
	// the backend never sees the same delete twice.
	var deletes []fga.TupleKey
	seen := map[fga.TupleKey]bool{}
	for _, t := range append(onOrg, owned...) {
		if seen[t.Key] {
			continue
		}
		seen[t.Key] = true
		deletes = append(deletes, t.Key)
	}
	for start := 0; start < len(deletes); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(deletes))
		if err := s.store.Write(ctx, nil, deletes[start:end]); err != nil {
			return err
		}
	}
	s.logger.Info("deleted org tuples", "org", orgID, "count", len(deletes))
	return nil
}
