// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
)

// groupMessage is the payload of a group administration message.
type groupMessage struct {
	Action      string   `json:"action"`
	Org         string   `json:"org"`
	Group       string   `json:"group,omitempty"`
	Description string   `json:"description,omitempty"`
	Users       []string `json:"users,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	User        string   `json:"user,omitempty"`
}

// groupUpdateHandler handles group administration requests from the
// NATS server.
func (h *HandlerService) groupUpdateHandler(message INatsMsg) error {
	ctx, cancel := handlerContext()
	defer cancel()

	logger.With("message", string(message.Data())).DebugContext(ctx, "handling group update request")

	var req groupMessage
	if err := json.Unmarshal(message.Data(), &req); err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "event data parse error")
		if errRespond := respondIfRequested(ctx, message, []byte("invalid group message")); errRespond != nil {
			return errRespond
		}
		return err
	}

	switch req.Action {
	case "create":
		group, err := h.groups.Create(ctx, req.Org, req.Group, req.Description)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		h.cache.invalidate(ctx)
		return h.respondJSON(ctx, message, group)
	case "delete":
		err := h.groups.Delete(ctx, req.Org, req.Group)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "add_users":
		err := h.groups.AddUsers(ctx, req.Org, req.Group, req.Users)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "remove_users":
		err := h.groups.RemoveUsers(ctx, req.Org, req.Group, req.Users)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "add_roles":
		err := h.groups.AddRoles(ctx, req.Org, req.Group, req.Roles)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "remove_roles":
		err := h.groups.RemoveRoles(ctx, req.Org, req.Group, req.Roles)
		if err == nil {
			h.cache.invalidate(ctx)
		}
		return h.respondOutcome(ctx, message, err)
	case "list":
		names, err := h.groups.List(ctx, req.Org)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, names)
	case "get":
		group, err := h.groups.Get(ctx, req.Org, req.Group)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, group)
	case "user_groups":
		groups, err := h.groups.UserGroups(ctx, req.Org, req.User)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, groups)
	case "user_roles":
		roles, err := h.groups.UserRoles(ctx, req.Org, req.User)
		if err != nil {
			return h.respondOutcome(ctx, message, err)
		}
		return h.respondJSON(ctx, message, roles)
	default:
		err := fmt.Errorf("unknown group action %q", req.Action)
		logger.With("action", req.Action).WarnContext(ctx, "unknown group action")
		if errRespond := respondIfRequested(ctx, message, []byte(err.Error())); errRespond != nil {
			return errRespond
		}
		return err
	}
}
