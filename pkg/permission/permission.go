// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// Package permission defines the closed permission enumeration and its
// two wire encodings: the API-facing grant relation (ALLOW_*) written on
// role permission tuples, and the internal check relation (admin,
// can_read, ...) evaluated by the tuple store.
package permission

import "strings"

// Permission is one of the six permission kinds. The zero value is
// AllowGet: every conversion from an unrecognized input intentionally
// lands on read-only access rather than rejecting outright.
type Permission int

const (
	// AllowGet permits reading a single object.
	AllowGet Permission = iota
	// AllowAll permits everything; it implies every other permission.
	AllowAll
	// AllowList permits listing objects of a type.
	AllowList
	// AllowPost permits creating objects.
	AllowPost
	// AllowPut permits updating objects.
	AllowPut
	// AllowDelete permits deleting objects.
	AllowDelete
)

// String returns the API-facing permission name, e.g. "AllowGet".
func (p Permission) String() string {
	switch p {
	case AllowAll:
		return "AllowAll"
	case AllowList:
		return "AllowList"
	case AllowPost:
		return "AllowPost"
	case AllowPut:
		return "AllowPut"
	case AllowDelete:
		return "AllowDelete"
	default:
		return "AllowGet"
	}
}

// FromString parses an API-facing permission name. Both "AllowGet" and
// "allow_get" spellings are accepted, case-insensitively.
func FromString(s string) (Permission, bool) {
	switch strings.ToLower(s) {
	case "allowall", "allow_all":
		return AllowAll, true
	case "allowlist", "allow_list":
		return AllowList, true
	case "allowget", "allow_get":
		return AllowGet, true
	case "allowpost", "allow_post":
		return AllowPost, true
	case "allowput", "allow_put":
		return AllowPut, true
	case "allowdelete", "allow_delete":
		return AllowDelete, true
	default:
		return AllowGet, false
	}
}

// FromMethod maps an HTTP method to a permission. A GET with isList set
// (the object is an org-wide wildcard) becomes AllowList; unrecognized
// methods default to AllowGet.
func FromMethod(method string, isList bool) Permission {
	switch strings.ToUpper(method) {
	case "GET":
		if isList {
			return AllowList
		}
		return AllowGet
	case "POST":
		return AllowPost
	case "PUT", "PATCH":
		return AllowPut
	case "DELETE":
		return AllowDelete
	default:
		return AllowGet
	}
}

// Relation returns the internal check relation evaluated on is_allowed.
func (p Permission) Relation() string {
	switch p {
	case AllowAll:
		return "admin"
	case AllowList:
		return "can_list"
	case AllowPost:
		return "can_create"
	case AllowPut:
		return "can_update"
	case AllowDelete:
		return "can_delete"
	default:
		return "can_read"
	}
}

// APIRelation returns the grant relation written on role permission
// tuples.
func (p Permission) APIRelation() string {
	switch p {
	case AllowAll:
		return "ALLOW_ALL"
	case AllowList:
		return "ALLOW_LIST"
	case AllowPost:
		return "ALLOW_POST"
	case AllowPut:
		return "ALLOW_PUT"
	case AllowDelete:
		return "ALLOW_DELETE"
	default:
		return "ALLOW_GET"
	}
}

// FromAPIRelation converts a grant relation back to a permission.
// Unknown relations map to AllowGet.
func FromAPIRelation(relation string) Permission {
	switch relation {
	case "ALLOW_ALL":
		return AllowAll
	case "ALLOW_LIST":
		return AllowList
	case "ALLOW_GET":
		return AllowGet
	case "ALLOW_POST":
		return AllowPost
	case "ALLOW_PUT":
		return AllowPut
	case "ALLOW_DELETE":
		return AllowDelete
	default:
		return AllowGet
	}
}

// Implies reports whether holding p grants other. Only AllowAll implies
// anything beyond itself.
func (p Permission) Implies(other Permission) bool {
	return p == AllowAll || p == other
}
