// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/visdata/authz-service/pkg/authorizer"
)

func TestGroupUpdateHandlerCreate(t *testing.T) {
	service := setupService()
	payload, _ := json.Marshal(groupMessage{
		Action: "create", Org: "default", Group: "developers", Description: "dev team",
	})
	msg := CreateMockNatsMsg(payload)

	service.groups.(*MockGroupAdmin).On("Create", mock.Anything, "default", "developers", "dev team").
		Return(&authorizer.GroupResponse{ID: "g1", Name: "developers", DisplayName: "Developers"}, nil)
	msg.On("Respond", mock.MatchedBy(func(data []byte) bool {
		var resp authorizer.GroupResponse
		return json.Unmarshal(data, &resp) == nil && resp.Name == "developers"
	})).Return(nil).Once()

	require.NoError(t, service.groupUpdateHandler(msg))
	service.groups.(*MockGroupAdmin).AssertExpectations(t)
	msg.AssertExpectations(t)
}

func TestGroupUpdateHandlerRoles(t *testing.T) {
	service := setupService()
	payload, _ := json.Marshal(groupMessage{
		Action: "add_roles", Org: "default", Group: "developers", Roles: []string{"deployer"},
	})
	msg := CreateMockNatsMsg(payload)

	service.groups.(*MockGroupAdmin).On("AddRoles", mock.Anything, "default", "developers", []string{"deployer"}).
		Return(nil)
	msg.On("Respond", []byte("OK")).Return(nil).Once()

	require.NoError(t, service.groupUpdateHandler(msg))
	service.groups.(*MockGroupAdmin).AssertExpectations(t)
}

func TestGroupUpdateHandlerUserRoles(t *testing.T) {
	service := setupService()
	payload, _ := json.Marshal(groupMessage{Action: "user_roles", Org: "default", User: "a@x.com"})
	msg := CreateMockNatsMsg(payload)

	service.groups.(*MockGroupAdmin).On("UserRoles", mock.Anything, "default", "a@x.com").
		Return([]string{"auditor", "deployer"}, nil)
	msg.On("Respond", []byte(`["auditor","deployer"]`)).Return(nil).Once()

	require.NoError(t, service.groupUpdateHandler(msg))
	msg.AssertExpectations(t)
}

func TestGroupUpdateHandlerUnknownAction(t *testing.T) {
	service := setupService()
	payload, _ := json.Marshal(groupMessage{Action: "explode", Org: "default"})
	msg := CreateMockNatsMsg(payload)
	msg.On("Respond", []byte(`unknown group action "explode"`)).Return(nil).Once()

	assert.Error(t, service.groupUpdateHandler(msg))
	msg.AssertExpectations(t)
}
