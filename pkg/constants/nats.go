// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package constants

// NATS Key-Value store bucket names.
const (
	// KVBucketNameDecisionCache is the name of the KV bucket for cached
	// permission-check decisions.
	KVBucketNameDecisionCache = "authz-decision-cache"
)

// NATS subjects that the authz service handles messages about.
const (
	// AccessCheckSubject is the subject for permission check requests.
	// The subject is of the form: visdata.authz.check
	AccessCheckSubject = "visdata.authz.check"

	// RoleUpdateSubject is the subject for custom-role administration.
	// The subject is of the form: visdata.authz.role
	RoleUpdateSubject = "visdata.authz.role"

	// GroupUpdateSubject is the subject for group administration.
	// The subject is of the form: visdata.authz.group
	GroupUpdateSubject = "visdata.authz.group"

	// OrgUpdateSubject is the subject for org lifecycle operations
	// (org creation/deletion, user onboarding/offboarding, role changes).
	// The subject is of the form: visdata.authz.org
	OrgUpdateSubject = "visdata.authz.org"
)

// NATS queue names that the authz service subscribes with.
const (
	// AuthzQueue is the queue group name for the authz service.
	AuthzQueue = "visdata.authz.queue"
)
