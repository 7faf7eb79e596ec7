// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visdata/authz-service/pkg/fga"
	"github.com/visdata/authz-service/pkg/permission"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoleToRelation(t *testing.T) {
	assert.Equal(t, "admin", RoleToRelation("root"))
	assert.Equal(t, "admin", RoleToRelation("admin"))
	assert.Equal(t, "admin", RoleToRelation("Admin"))
	assert.Equal(t, "editor", RoleToRelation("editor"))
	assert.Equal(t, "viewer", RoleToRelation("viewer"))
	assert.Equal(t, "allowed_user", RoleToRelation("user"))
	assert.Equal(t, "allowed_user", RoleToRelation("serviceaccount"))
	assert.Equal(t, "allowed_user", RoleToRelation("service_account"))
	assert.Equal(t, "allowed_user", RoleToRelation(""))
	assert.Equal(t, "allowed_user", RoleToRelation("anything-else"))
}

func TestAddUserToOrgTuples(t *testing.T) {
	tuples := AddUserToOrgTuples("default", "alice@example.com", "editor")
	require.Len(t, tuples, 2)
	assert.Equal(t, fga.TupleKey{
		User: "user:alice@example.com", Relation: "editor", Object: "org:default",
	}, tuples[0])
	assert.Equal(t, fga.TupleKey{
		User: "user:alice@example.com", Relation: "org_context", Object: "org:default",
	}, tuples[1])
}

func TestRemoveUserAllTuples(t *testing.T) {
	tuples := RemoveUserAllTuples("default", "bob@example.com")
	require.Len(t, tuples, 5)
	relations := make([]string, 0, len(tuples))
	for _, tk := range tuples {
		assert.Equal(t, "user:bob@example.com", tk.User)
		assert.Equal(t, "org:default", tk.Object)
		relations = append(relations, tk.Relation)
	}
	assert.ElementsMatch(t, []string{"admin", "editor", "viewer", "allowed_user", "org_context"}, relations)
}

func TestRoleAndGroupTuples(t *testing.T) {
	assert.Equal(t, fga.TupleKey{
		User: "user:a@x.com", Relation: "assigned", Object: "role:default_dev",
	}, UserRoleTuple("default", "a@x.com", "dev"))

	assert.Equal(t, fga.TupleKey{
		User: "user:a@x.com", Relation: "member", Object: "group:default_devs",
	}, GroupMemberTuple("default", "devs", "a@x.com"))

	assert.Equal(t, fga.TupleKey{
		User: "group:default_devs", Relation: "grp_assigned", Object: "role:default_dev",
	}, GroupRoleTuple("default", "devs", "dev"))

	assert.Equal(t, fga.TupleKey{
		User: "role:default_dev#has", Relation: "ALLOW_PUT", Object: "logs:_all_default",
	}, OrgResourcePermissionTuple("default", "dev", "logs", permission.AllowPut))

	assert.Equal(t, fga.TupleKey{
		User: "user:a@x.com", Relation: "owner", Object: "dashboard:d1",
	}, OwnershipTuple("a@x.com", "dashboard:d1"))

	assert.Equal(t, fga.TupleKey{
		User: "dfolder:f1", Relation: "parent", Object: "dashboard:d1",
	}, ResourceParentTuple("dfolder:f1", "dashboard:d1"))
}

func TestServiceAccountAndNewUserTuples(t *testing.T) {
	for _, tuples := range [][]fga.TupleKey{
		ServiceAccountTuples("default", "svc@x.com"),
		NewUserTuples("svc@x.com", "default"),
	} {
		require.Len(t, tuples, 2)
		assert.Equal(t, "allowed_user", tuples[0].Relation)
		assert.Equal(t, "org_context", tuples[1].Relation)
	}
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewOrgService(store, testLogger())

	require.NoError(t, svc.AddUser(ctx, "default", "alice@x.com", "viewer"))
	require.True(t, store.has(fga.TupleKey{User: "user:alice@x.com", Relation: "viewer", Object: "org:default"}))

	require.NoError(t, svc.UpdateUserRole(ctx, "default", "alice@x.com", "viewer", "editor"))
	assert.False(t, store.has(fga.TupleKey{User: "user:alice@x.com", Relation: "viewer", Object: "org:default"}))
	assert.True(t, store.has(fga.TupleKey{User: "user:alice@x.com", Relation: "editor", Object: "org:default"}))
	// org_context survives role changes.
	assert.True(t, store.has(fga.TupleKey{User: "user:alice@x.com", Relation: "org_context", Object: "org:default"}))
}

func TestUpdateUserRoleNoop(t *testing.T) {
	mockStore := &MockTupleStore{}
	svc := NewOrgService(mockStore, testLogger())

	// user and serviceaccount both map to allowed_user: nothing to write.
	require.NoError(t, svc.UpdateUserRole(context.Background(), "default", "a@x.com", "user", "serviceaccount"))
	mockStore.AssertNotCalled(t, "Write")
}

func TestRemoveUserDeletesOnlyExistingTuples(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewOrgService(store, testLogger())

	require.NoError(t, svc.AddUser(ctx, "default", "bob@x.com", "editor"))
	require.NoError(t, svc.AddUser(ctx, "other", "bob@x.com", "admin"))

	require.NoError(t, svc.RemoveUser(ctx, "default", "bob@x.com"))
	assert.False(t, store.has(fga.TupleKey{User: "user:bob@x.com", Relation: "editor", Object: "org:default"}))
	assert.False(t, store.has(fga.TupleKey{User: "user:bob@x.com", Relation: "org_context", Object: "org:default"}))
	// Membership in other orgs is untouched.
	assert.True(t, store.has(fga.TupleKey{User: "user:bob@x.com", Relation: "admin", Object: "org:other"}))
}

func TestSaveAndDeleteOrg(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewOrgService(store, testLogger())

	require.NoError(t, svc.SaveOrg(ctx, "acme"))
	assert.True(t, store.has(fga.TupleKey{User: "org:acme", Relation: "member", Object: "org:acme"}))
	assert.True(t, store.has(fga.TupleKey{User: "org:acme", Relation: "owningOrg", Object: "logs:_all_acme"}))
	require.NoError(t, svc.AddUser(ctx, "acme", "alice@x.com", "admin"))

	require.NoError(t, svc.DeleteOrg(ctx, "acme"))
	assert.Equal(t, 0, store.count())
}
