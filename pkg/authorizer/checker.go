// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/visdata/authz-service/pkg/catalog"
	"github.com/visdata/authz-service/pkg/codec"
	"github.com/visdata/authz-service/pkg/fga"
	"github.com/visdata/authz-service/pkg/permission"
)

const errKey = "error"

// rootRole bypasses all permission checks.
const rootRole = "root"

// Checker answers is-this-request-allowed questions. It is read-only
// with respect to the tuple store and fails closed: a backend failure
// denies the request.
type Checker struct {
	store             TupleStore
	enabled           bool
	listOnlyPermitted bool
	logger            *slog.Logger
}

// NewChecker builds a Checker. When enabled is false every check allows.
func NewChecker(store TupleStore, enabled, listOnlyPermitted bool, logger *slog.Logger) *Checker {
	return &Checker{
		store:             store,
		enabled:           enabled,
		listOnlyPermitted: listOnlyPermitted,
		logger:            logger,
	}
}

// Enabled reports whether enforcement is on.
func (c *Checker) Enabled() bool {
	return c.enabled
}

// ListOnlyPermitted reports whether list responses should be filtered to
// the caller's readable objects.
func (c *Checker) ListOnlyPermitted() bool {
	return c.listOnlyPermitted
}

// IsAllowed decides whether userID may perform method on object within
// orgID. object is "type:entity"; role is the caller's org role.
// Malformed objects and unknown resource types deny; the root role
// always allows.
func (c *Checker) IsAllowed(ctx context.Context, orgID, userID, method, object, role string) (bool, error) {
	if !c.enabled {
		return true, nil
	}
	if strings.EqualFold(role, rootRole) {
		return true, nil
	}

	resourceType, entityID, ok := codec.ParseObject(object)
	if !ok {
		c.logger.Warn("denying malformed object", "object", object, "org", orgID)
		return false, nil
	}
	if !catalog.IsValid(resourceType) {
		c.logger.Warn("denying unknown resource type", "resource_type", resourceType, "org", orgID)
		return false, nil
	}

	isList := codec.IsAllOrgEntity(entityID, orgID)
	perm := permission.FromMethod(method, isList)

	// Rebuild the object for the check rather than passing the caller's
	// spelling through: every wildcard form ("logs:_all",
	// "logs:_all_other") is rewritten to this org's "_all_<org>" object,
	// which is where grants are stored.
	checkObject := codec.ResourceObject(orgID, resourceType, entityID)
	if isList {
		checkObject = codec.ResourceObjectAll(orgID, resourceType)
	}

	allowed, err := c.store.Check(ctx, fga.TupleKey{
		User:     codec.UserObject(userID),
		Relation: perm.Relation(),
		Object:   checkObject,
	})
	if err != nil {
		// Fail closed: an unreachable backend denies rather than errors.
		c.logger.With(errKey, err).Error("permission check failed, denying",
			"user", userID, "object", checkObject, "relation", perm.Relation())
		return false, nil
	}
	return allowed, nil
}

// CheckPermissions is the boolean convenience form of IsAllowed.
func (c *Checker) CheckPermissions(ctx context.Context, orgID, userID, method, object, role string) bool {
	allowed, _ := c.IsAllowed(ctx, orgID, userID, method, object, role)
	return allowed
}

// ListObjectsForUser returns the entity ids of objectType that userID
// holds perm on in orgID. restricted is false when the result contains
// an org-wide wildcard, the caller bypasses enforcement, or the platform
// is configured to not restrict listings; the caller may then see
// everything.
func (c *Checker) ListObjectsForUser(ctx context.Context, orgID, userID string, perm permission.Permission, objectType, role string) (ids []string, restricted bool, err error) {
	if !c.enabled || !c.listOnlyPermitted || strings.EqualFold(role, rootRole) {
		return nil, false, nil
	}

	objects, err := c.store.ListObjects(ctx, codec.UserObject(userID), perm.Relation(), objectType)
	if err != nil {
		return nil, false, err
	}

	restricted = true
	prefix := objectType + ":"
	for _, obj := range objects {
		entity, found := strings.CutPrefix(obj, prefix)
		if !found {
			continue
		}
		if codec.IsAllOrgEntity(entity, orgID) {
			// A wildcard for another org grants nothing here.
			if entity != "_all_"+orgID && entity != "_all" {
				continue
			}
			restricted = false
		}
		ids = append(ids, entity)
	}
	sort.Strings(ids)
	return ids, restricted, nil
}
