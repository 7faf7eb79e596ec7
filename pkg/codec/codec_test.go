// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectConstructors(t *testing.T) {
	assert.Equal(t, "org:default", OrgObject("default"))
	assert.Equal(t, "user:alice@example.com", UserObject("alice@example.com"))
	assert.Equal(t, "role:default_developer", RoleObject("default", "developer"))
	assert.Equal(t, "group:default_developers", GroupObject("default", "developers"))
	assert.Equal(t, "logs:my_stream", ResourceObject("default", "logs", "my_stream"))
	assert.Equal(t, "logs:_all_default", ResourceObjectAll("default", "logs"))
}

func TestUsersets(t *testing.T) {
	assert.Equal(t, "org:default#member", Userset("org:default", "member"))
	assert.Equal(t, "role:default_dev#has", RoleGrantSubject("role:default_dev"))
	assert.Equal(t, "group:default_devs#member", GroupMemberSubject("group:default_devs"))
}

func TestParseObject(t *testing.T) {
	typ, entity, ok := ParseObject("logs:my_stream")
	assert.True(t, ok)
	assert.Equal(t, "logs", typ)
	assert.Equal(t, "my_stream", entity)

	// Only the first colon splits; entity ids may contain colons.
	typ, entity, ok = ParseObject("kv:ns:key")
	assert.True(t, ok)
	assert.Equal(t, "kv", typ)
	assert.Equal(t, "ns:key", entity)

	// Empty entity is structurally fine; validity is the caller's call.
	typ, entity, ok = ParseObject("logs:")
	assert.True(t, ok)
	assert.Equal(t, "logs", typ)
	assert.Empty(t, entity)

	_, _, ok = ParseObject("no_separator")
	assert.False(t, ok)

	_, _, ok = ParseObject("")
	assert.False(t, ok)
}

func TestIsAllOrgEntity(t *testing.T) {
	assert.True(t, IsAllOrgEntity("_all_default", "default"))
	assert.True(t, IsAllOrgEntity("_all", "default"))
	// Any _all-prefixed entity counts as a wildcard, even one naming
	// another org.
	assert.True(t, IsAllOrgEntity("_all_other", "default"))
	assert.False(t, IsAllOrgEntity("my_stream", "default"))
	assert.False(t, IsAllOrgEntity("all", "default"))
	assert.False(t, IsAllOrgEntity("", "default"))
}
