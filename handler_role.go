// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/visdata/authz-service/pkg/authorizer"
)

// roleMessage is the payload of a role administration message.
type roleMessage struct {
	Action       string                       `json:"action"`
	Org          string                       `json:"org"`
	Role         string                       `json:"role,omitempty"`
	Users        []string                     `json:"users,omitempty"`
	Permissions  []authorizer.PermissionEntry `json:"permissions,omitempty"`
	ResourceType string                       `json:"resource_type,omitempty"`
}

// handlerContext returns the bounded context administration handlers
// run under.
func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// respondJSON marshals result and sends it as the reply.
func (h *HandlerService) respondJSON(ctx context.Context, message INatsMsg, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "failed to marshal response")
		return respondIfRequested(ctx, message, []byte("internal error"))
	}
	return respondIfRequested(ctx, message, data)
}

// respondOutcome acknowledges a mutation: "OK" on success, the error
// text otherwise.
func (h *HandlerService) respondOutcome(ctx context.Context, message INatsMsg, err error) error {
	if err != nil {
		logger.With(errKey, err).WarnContext(ctx, "administration request failed")
		return respondIfRequested(ctx, message, []byte(err.Error()))
	}
	return respondIfRequested(ctx, message, []byte("OK"))
}

// roleUpdateHandler handles role administration requests from the NATS
// server.
func (h *HandlerService) roleUpdateHandler(message INatsMsg) error {
	ctx, cancel := handlerContext()
	defer cancel()

	logger.With("message", string(message.Data())).DebugContext(ctx, "handling role update request")

	var req roleMessage
	if err := json.Unmarshal(message.Data(), &req); err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "event data parse error")
		if errRespond := respondIfRequested(ctx, message, []byte("invalid role message")); errRespond != nil {
			return errRespond
		}
		return err
	}

	switch req.Action {
	case "create":
		err := h.roles.Create(ctx, req.Org, req.Role)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "delete":
		err := h.roles.Delete(ctx, req.Org, req.Role)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "add_users":
		err := h.roles.AddUsers(ctx, req.Org, req.Role, req.Users)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "remove_users":
		err := h.roles.RemoveUsers(ctx, req.Org, req.Role, req.Users)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "add_permissions":
		err := h.roles.AddPermissions(ctx, req.Org, req.Role, req.Permissions)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "remove_permissions":
		err := h.roles.RemovePermissions(ctx, req.Org, req.Role, req.Permissions)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "list":
		names, err := h.roles.List(ctx, req.Org)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, names)
	case "get":
		role, err := h.roles.GetRole(ctx, req.Org, req.Role)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, role)
	case "get_users":
		users, err := h.roles.GetRoleUsers(ctx, req.Org, req.Role)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, users)
	case "get_permissions":
		entries, err := h.roles.GetRolePermissions(ctx, req.Org, req.Role, req.ResourceType)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, entries)
	default:
		err := fmt.Errorf("unknown role action %q", req.Action)
		logger.With("action", req.Action).WarnContext(ctx, "unknown role action")
		if errRespond := respondIfRequested(ctx, message, []byte(err.Error())); errRespond != nil {
			return errRespond
		}
		return err
	}
}
