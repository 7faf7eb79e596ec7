// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// Package codec builds and parses the tuple string grammar. Every tuple
// user/object string in the system is produced by one of these
// constructors; nothing else hand-formats tuple strings.
package codec

import (
	"strings"

	"github.com/visdata/authz-service/pkg/constants"
)

// OrgObject returns the org identifier, e.g. "org:default".
func OrgObject(orgID string) string {
	return constants.ObjectTypeOrg + orgID
}

// UserObject returns the user identifier, e.g. "user:alice@example.com".
func UserObject(email string) string {
	return constants.ObjectTypeUser + email
}

// RoleObject returns the org-scoped role identifier, e.g.
// "role:default_developer".
func RoleObject(orgID, roleName string) string {
	return constants.ObjectTypeRole + orgID + "_" + roleName
}

// GroupObject returns the org-scoped group identifier, e.g.
// "group:default_developers".
func GroupObject(orgID, groupName string) string {
	return constants.ObjectTypeGroup + orgID + "_" + groupName
}

// ResourceObject returns the object string for a concrete entity, e.g.
// "logs:my_stream". The org id is not embedded in the object string; org
// scoping is established through owningOrg tuples, which is why orgID is
// accepted but unused.
func ResourceObject(_ string, resourceType, entityID string) string {
	return resourceType + ":" + entityID
}

// ResourceObjectAll returns the org-wide wildcard object for a resource
// type, e.g. "logs:_all_default", meaning every entity of that type in
// the org.
func ResourceObjectAll(orgID, resourceType string) string {
	return resourceType + ":_all_" + orgID
}

// Userset returns the userset reference "<object>#<relation>", denoting
// anyone holding relation on object.
func Userset(object, relation string) string {
	return object + "#" + relation
}

// RoleGrantSubject returns the userset that holds a role's granted
// permissions, "<role>#has".
func RoleGrantSubject(roleObject string) string {
	return Userset(roleObject, constants.RelationHas)
}

// GroupMemberSubject returns the userset of a group's members,
// "<group>#member".
func GroupMemberSubject(groupObject string) string {
	return Userset(groupObject, constants.RelationMember)
}

// ParseObject splits "type:entity" on the first colon. ok is false when
// no separator is present; callers must treat that as malformed input
// and deny.
func ParseObject(object string) (resourceType, entityID string, ok bool) {
	resourceType, entityID, ok = strings.Cut(object, ":")
	return
}

// IsAllOrgEntity reports whether entityID is an org-wide wildcard. Any
// "_all" prefix counts, not only the exact "_all_<org>" form; the
// permission checker relies on this to pick list semantics for every
// wildcard spelling.
func IsAllOrgEntity(entityID, orgID string) bool {
	return entityID == "_all_"+orgID || entityID == "_all" || strings.HasPrefix(entityID, "_all")
}
