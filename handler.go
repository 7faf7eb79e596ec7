// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"context"

	nats "github.com/nats-io/nats.go"

	"github.com/visdata/authz-service/pkg/authorizer"
	"github.com/visdata/authz-service/pkg/permission"
)

// PermissionChecker is the checker surface the access-check handler
// uses. *authorizer.Checker satisfies it.
type PermissionChecker interface {
	IsAllowed(ctx context.Context, orgID, userID, method, object, role string) (bool, error)
	ListObjectsForUser(ctx context.Context, orgID, userID string, perm permission.Permission, objectType, role string) ([]string, bool, error)
}

// RoleAdmin is the role administration surface the role handler uses.
// *authorizer.RoleService satisfies it.
type RoleAdmin interface {
	Create(ctx context.Context, orgID, name string) error
	Delete(ctx context.Context, orgID, name string) error
	List(ctx context.Context, orgID string) ([]string, error)
	GetRole(ctx context.Context, orgID, name string) (*authorizer.RoleResponse, error)
	GetRoleUsers(ctx context.Context, orgID, name string) ([]string, error)
	GetRolePermissions(ctx context.Context, orgID, name, resourceType string) ([]authorizer.PermissionEntry, error)
	AddUsers(ctx context.Context, orgID, name string, emails []string) error
	RemoveUsers(ctx context.Context, orgID, name string, emails []string) error
	AddPermissions(ctx context.Context, orgID, name string, entries []authorizer.PermissionEntry) error
	RemovePermissions(ctx context.Context, orgID, name string, entries []authorizer.PermissionEntry) error
}

// GroupAdmin is the group administration surface the group handler
// uses. *authorizer.GroupService satisfies it.
type GroupAdmin interface {
	Create(ctx context.Context, orgID, name, description string) (*authorizer.GroupResponse, error)
	Delete(ctx context.Context, orgID, name string) error
	List(ctx context.Context, orgID string) ([]string, error)
	Get(ctx context.Context, orgID, name string) (*authorizer.GroupResponse, error)
	AddUsers(ctx context.Context, orgID, name string, emails []string) error
	RemoveUsers(ctx context.Context, orgID, name string, emails []string) error
	AddRoles(ctx context.Context, orgID, name string, roles []string) error
	RemoveRoles(ctx context.Context, orgID, name string, roles []string) error
	UserGroups(ctx context.Context, orgID, email string) ([]string, error)
	UserRoles(ctx context.Context, orgID, email string) ([]string, error)
}

// OrgAdmin is the org lifecycle surface the org handler uses.
// *authorizer.OrgService satisfies it.
type OrgAdmin interface {
	AddUser(ctx context.Context, orgID, email, role string) error
	RemoveUser(ctx context.Context, orgID, email string) error
	RemoveUserWithRole(ctx context.Context, orgID, email, role string) error
	UpdateUserRole(ctx context.Context, orgID, email, oldRole, newRole string) error
	SaveOrg(ctx context.Context, orgID string) error
	DeleteOrg(ctx context.Context, orgID string) error
}

// HandlerService handles the messages from NATS about authorization.
type HandlerService struct {
	checker PermissionChecker
	roles   RoleAdmin
	groups  GroupAdmin
	orgs    OrgAdmin
	cache   *decisionCache
}

// INatsMsg is an interface for [nats.Msg] that allows for mocking.
type INatsMsg interface {
	Reply() string
	Respond(data []byte) error
	Data() []byte
	Subject() string
}

// NatsMsg is a wrapper around [nats.Msg] that implements [INatsMsg].
type NatsMsg struct {
	*nats.Msg
}

// Reply implements [INatsMsg.Reply].
func (m *NatsMsg) Reply() string {
	return m.Msg.Reply
}

// Respond implements [INatsMsg.Respond].
func (m *NatsMsg) Respond(data []byte) error {
	return m.Msg.Respond(data)
}

// Data implements [INatsMsg.Data].
func (m *NatsMsg) Data() []byte {
	return m.Msg.Data
}

// Subject implements [INatsMsg.Subject].
func (m *NatsMsg) Subject() string {
	return m.Msg.Subject
}

// respondIfRequested sends data as a reply when the message carries an
// inbox.
func respondIfRequested(ctx context.Context, message INatsMsg, data []byte) error {
	if message.Reply() == "" {
		return nil
	}
	if err := message.Respond(data); err != nil {
		logger.With(errKey, err).WarnContext(ctx, "failed to send reply")
		return err
	}
	return nil
}
