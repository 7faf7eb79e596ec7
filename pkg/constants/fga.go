// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package constants

import "strings"

// OpenFGA relation constants for the VisData authorization model.
// These define the relationships between users, roles, groups,
// organizations and resources in the tuple graph.
// Note: constants for one object type can still be the same as for
// another object type (e.g. RelationMember appears on both org and group).
const (
	// Structural relations
	RelationOwningOrg  = "owningOrg"
	RelationParent     = "parent"
	RelationSelfParent = "selfParent"
	RelationOwner      = "owner"
	RelationMember     = "member"

	// Org-level role relations. Permission evaluation intersects a role
	// relation with org_context, so both tuples must always be written
	// (and deleted) together.
	RelationAdmin       = "admin"
	RelationEditor      = "editor"
	RelationViewer      = "viewer"
	RelationAllowedUser = "allowed_user"
	RelationOrgContext  = "org_context"

	// Custom-role relations
	RelationAssigned      = "assigned"
	RelationGroupAssigned = "grp_assigned"
	RelationHas           = "has"

	// Object type prefixes
	ObjectTypeUser  = "user:"
	ObjectTypeOrg   = "org:"
	ObjectTypeRole  = "role:"
	ObjectTypeGroup = "group:"
)

// SystemRoles are the fixed org-level roles. They cannot be created,
// renamed or deleted through the role service.
var SystemRoles = []string{"admin", "editor", "viewer"}

// IsSystemRole reports whether name matches a system role, ignoring case.
func IsSystemRole(name string) bool {
	for _, r := range SystemRoles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}
