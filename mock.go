// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/mock"

	"github.com/visdata/authz-service/pkg/authorizer"
	"github.com/visdata/authz-service/pkg/permission"
)

// MockNatsMsg is a mock implementation of the INatsMsg interface
type MockNatsMsg struct {
	mock.Mock
	reply   string
	data    []byte
	subject string
}

// Reply implements the INatsMsg interface
func (m *MockNatsMsg) Reply() string {
	return m.reply
}

// Respond implements the INatsMsg interface
func (m *MockNatsMsg) Respond(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

// Data implements the INatsMsg interface
func (m *MockNatsMsg) Data() []byte {
	return m.data
}

// Subject implements the INatsMsg interface
func (m *MockNatsMsg) Subject() string {
	return m.subject
}

// CreateMockNatsMsg creates a mock NATS message that can be used in tests
func CreateMockNatsMsg(data []byte) *MockNatsMsg {
	msg := MockNatsMsg{
		data:  data,
		reply: "reply.subject",
	}
	return &msg
}

// MockChecker is a mock implementation of the PermissionChecker interface
type MockChecker struct {
	mock.Mock
}

// IsAllowed implements the PermissionChecker interface
func (m *MockChecker) IsAllowed(ctx context.Context, orgID, userID, method, object, role string) (bool, error) {
	args := m.Called(ctx, orgID, userID, method, object, role)
	return args.Bool(0), args.Error(1)
}

// ListObjectsForUser implements the PermissionChecker interface
func (m *MockChecker) ListObjectsForUser(ctx context.Context, orgID, userID string, perm permission.Permission, objectType, role string) ([]string, bool, error) {
	args := m.Called(ctx, orgID, userID, perm, objectType, role)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Bool(1), args.Error(2)
}

// MockRoleAdmin is a mock implementation of the RoleAdmin interface
type MockRoleAdmin struct {
	mock.Mock
}

// Create implements the RoleAdmin interface
func (m *MockRoleAdmin) Create(ctx context.Context, orgID, name string) error {
	args := m.Called(ctx, orgID, name)
	return args.Error(0)
}

// Delete implements the RoleAdmin interface
func (m *MockRoleAdmin) Delete(ctx context.Context, orgID, name string) error {
	args := m.Called(ctx, orgID, name)
	return args.Error(0)
}

// List implements the RoleAdmin interface
func (m *MockRoleAdmin) List(ctx context.Context, orgID string) ([]string, error) {
	args := m.Called(ctx, orgID)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}

// GetRole implements the RoleAdmin interface
func (m *MockRoleAdmin) GetRole(ctx context.Context, orgID, name string) (*authorizer.RoleResponse, error) {
	args := m.Called(ctx, orgID, name)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*authorizer.RoleResponse), args.Error(1)
}

// GetRoleUsers implements the RoleAdmin interface
func (m *MockRoleAdmin) GetRoleUsers(ctx context.Context, orgID, name string) ([]string, error) {
	args := m.Called(ctx, orgID, name)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}

// GetRolePermissions implements the RoleAdmin interface
func (m *MockRoleAdmin) GetRolePermissions(ctx context.Context, orgID, name, resourceType string) ([]authorizer.PermissionEntry, error) {
	args := m.Called(ctx, orgID, name, resourceType)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]authorizer.PermissionEntry), args.Error(1)
}

// AddUsers implements the RoleAdmin interface
func (m *MockRoleAdmin) AddUsers(ctx context.Context, orgID, name string, emails []string) error {
	args := m.Called(ctx, orgID, name, emails)
	return args.Error(0)
}

// RemoveUsers implements the RoleAdmin interface
func (m *MockRoleAdmin) RemoveUsers(ctx context.Context, orgID, name string, emails []string) error {
	args := m.Called(ctx, orgID, name, emails)
	return args.Error(0)
}

// AddPermissions implements the RoleAdmin interface
func (m *MockRoleAdmin) AddPermissions(ctx context.Context, orgID, name string, entries []authorizer.PermissionEntry) error {
	args := m.Called(ctx, orgID, name, entries)
	return args.Error(0)
}

// RemovePermissions implements the RoleAdmin interface
func (m *MockRoleAdmin) RemovePermissions(ctx context.Context, orgID, name string, entries []authorizer.PermissionEntry) error {
	args := m.Called(ctx, orgID, name, entries)
	return args.Error(0)
}

// MockGroupAdmin is a mock implementation of the GroupAdmin interface
type MockGroupAdmin struct {
	mock.Mock
}

// Create implements the GroupAdmin interface
func (m *MockGroupAdmin) Create(ctx context.Context, orgID, name, description string) (*authorizer.GroupResponse, error) {
	args := m.Called(ctx, orgID, name, description)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*authorizer.GroupResponse), args.Error(1)
}

// Delete implements the GroupAdmin interface
func (m *MockGroupAdmin) Delete(ctx context.Context, orgID, name string) error {
	args := m.Called(ctx, orgID, name)
	return args.Error(0)
}

// List implements the GroupAdmin interface
func (m *MockGroupAdmin) List(ctx context.Context, orgID string) ([]string, error) {
	args := m.Called(ctx, orgID)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}

// Get implements the GroupAdmin interface
func (m *MockGroupAdmin) Get(ctx context.Context, orgID, name string) (*authorizer.GroupResponse, error) {
	args := m.Called(ctx, orgID, name)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*authorizer.GroupResponse), args.Error(1)
}

// AddUsers implements the GroupAdmin interface
func (m *MockGroupAdmin) AddUsers(ctx context.Context, orgID, name string, emails []string) error {
	args := m.Called(ctx, orgID, name, emails)
	return args.Error(0)
}

// RemoveUsers implements the GroupAdmin interface
func (m *MockGroupAdmin) RemoveUsers(ctx context.Context, orgID, name string, emails []string) error {
	args := m.Called(ctx, orgID, name, emails)
	return args.Error(0)
}

// AddRoles implements the GroupAdmin interface
func (m *MockGroupAdmin) AddRoles(ctx context.Context, orgID, name string, roles []string) error {
	args := m.Called(ctx, orgID, name, roles)
	return args.Error(0)
}

// RemoveRoles implements the GroupAdmin interface
func (m *MockGroupAdmin) RemoveRoles(ctx context.Context, orgID, name string, roles []string) error {
	args := m.Called(ctx, orgID, name, roles)
	return args.Error(0)
}

// UserGroups implements the GroupAdmin interface
func (m *MockGroupAdmin) UserGroups(ctx context.Context, orgID, email string) ([]string, error) {
	args := m.Called(ctx, orgID, email)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}

// UserRoles implements the GroupAdmin interface
func (m *MockGroupAdmin) UserRoles(ctx context.Context, orgID, email string) ([]string, error) {
	args := m.Called(ctx, orgID, email)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}

// MockOrgAdmin is a mock implementation of the OrgAdmin interface
type MockOrgAdmin struct {
	mock.Mock
}

// AddUser implements the OrgAdmin interface
func (m *MockOrgAdmin) AddUser(ctx context.Context, orgID, email, role string) error {
	args := m.Called(ctx, orgID, email, role)
	return args.Error(0)
}

// RemoveUser implements the OrgAdmin interface
func (m *MockOrgAdmin) RemoveUser(ctx context.Context, orgID, email string) error {
	args := m.Called(ctx, orgID, email)
	return args.Error(0)
}

// RemoveUserWithRole implements the OrgAdmin interface
func (m *MockOrgAdmin) RemoveUserWithRole(ctx context.Context, orgID, email, role string) error {
	args := m.Called(ctx, orgID, email, role)
	return args.Error(0)
}

// UpdateUserRole implements the OrgAdmin interface
func (m *MockOrgAdmin) UpdateUserRole(ctx context.Context, orgID, email, oldRole, newRole string) error {
	args := m.Called(ctx, orgID, email, oldRole, newRole)
	return args.Error(0)
}

// SaveOrg implements the OrgAdmin interface
func (m *MockOrgAdmin) SaveOrg(ctx context.Context, orgID string) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

// DeleteOrg implements the OrgAdmin interface
func (m *MockOrgAdmin) DeleteOrg(ctx context.Context, orgID string) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

// MockKeyValue is a stateful fake of the INatsKeyValue interface
type MockKeyValue struct {
	mock.Mock
	mu           sync.Mutex
	data         map[string][]byte
	createdTimes map[string]time.Time
	returnError  error
	notFoundKeys map[string]bool
}

// NewMockKeyValue creates a new MockKeyValue instance
func NewMockKeyValue() *MockKeyValue {
	return &MockKeyValue{
		data:         make(map[string][]byte),
		createdTimes: make(map[string]time.Time),
		notFoundKeys: make(map[string]bool),
	}
}

// Get implements the INatsKeyValue interface
func (m *MockKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.returnError != nil {
		return nil, m.returnError
	}
	if m.notFoundKeys[key] {
		return nil, jetstream.ErrKeyNotFound
	}
	if data, exists := m.data[key]; exists {
		return &MockKeyValueEntry{
			key:     key,
			value:   data,
			created: m.createdTimes[key],
		}, nil
	}
	return nil, jetstream.ErrKeyNotFound
}

// Put implements the INatsKeyValue interface
func (m *MockKeyValue) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.returnError != nil {
		return 0, m.returnError
	}
	m.data[key] = value
	m.createdTimes[key] = time.Now()
	return 1, nil
}

// PutString implements the INatsKeyValue interface
func (m *MockKeyValue) PutString(ctx context.Context, key, value string) (uint64, error) {
	return m.Put(ctx, key, []byte(value))
}

// PutAt stores a value with an explicit creation time for staleness tests
func (m *MockKeyValue) PutAt(key string, value []byte, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.createdTimes[key] = created
}

// SetNotFound marks a key as missing regardless of stored data
func (m *MockKeyValue) SetNotFound(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notFoundKeys[key] = true
}

// SetError makes every operation fail with err
func (m *MockKeyValue) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnError = err
}

// MockKeyValueEntry is a mock implementation of jetstream.KeyValueEntry
type MockKeyValueEntry struct {
	key      string
	value    []byte
	created  time.Time
	revision uint64
}

func (m *MockKeyValueEntry) Bucket() string                  { return "test-bucket" }
func (m *MockKeyValueEntry) Key() string                     { return m.key }
func (m *MockKeyValueEntry) Value() []byte                   { return m.value }
func (m *MockKeyValueEntry) Created() time.Time              { return m.created }
func (m *MockKeyValueEntry) Revision() uint64                { return m.revision }
func (m *MockKeyValueEntry) Delta() uint64                   { return 0 }
func (m *MockKeyValueEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
