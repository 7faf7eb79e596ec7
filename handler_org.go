// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
)

// orgMessage is the payload of an org lifecycle message.
type orgMessage struct {
	Action  string `json:"action"`
	Org     string `json:"org"`
	User    string `json:"user,omitempty"`
	Role    string `json:"role,omitempty"`
	OldRole string `json:"old_role,omitempty"`
}

// orgUpdateHandler handles org lifecycle events from the NATS server:
// org creation and deletion, users joining and leaving, and org role
// changes.
func (h *HandlerService) orgUpdateHandler(message INatsMsg) error {
	ctx, cancel := handlerContext()
	defer cancel()

	logger.With("message", string(message.Data())).DebugContext(ctx, "handling org update request")

	var req orgMessage
	if err := json.Unmarshal(message.Data(), &req); err != nil {
		logger.With(errKey, err).ErrorContext(ctx, "event data parse error")
		if errRespond := respondIfRequested(ctx, message, []byte("invalid org message")); errRespond != nil {
			return errRespond
		}
		return err
	}

	var err error
	switch req.Action {
	case "org_created":
		err = h.orgs.SaveOrg(ctx, req.Org)
	case "org_deleted":
		err = h.orgs.DeleteOrg(ctx, req.Org)
	case "user_added":
		err = h.orgs.AddUser(ctx, req.Org, req.User, req.Role)
	case "user_removed":
		if req.Role != "" {
			err = h.orgs.RemoveUserWithRole(ctx, req.Org, req.User, req.Role)
		} else {
			err = h.orgs.RemoveUser(ctx, req.Org, req.User)
		}
	case "user_role_updated":
		err = h.orgs.UpdateUserRole(ctx, req.Org, req.User, req.OldRole, req.Role)
	default:
		err = fmt.Errorf("unknown org action %q", req.Action)
		logger.With("action", req.Action).WarnContext(ctx, "unknown org action")
		if errRespond := respondIfRequested(ctx, message, []byte(err.Error())); errRespond != nil {
			return errRespond
		}
		return err
	}

	if err == nil {
		h.cache.invalidate(ctx)
	}
	return h.respondOutcome(ctx, message, err)
}
