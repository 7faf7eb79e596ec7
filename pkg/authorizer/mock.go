// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/visdata/authz-service/pkg/fga"
)

// MockTupleStore is a mock implementation of the TupleStore interface.
type MockTupleStore struct {
	mock.Mock
}

// Check implements the TupleStore interface
func (m *MockTupleStore) Check(ctx context.Context, key fga.TupleKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Write implements the TupleStore interface
func (m *MockTupleStore) Write(ctx context.Context, writes, deletes []fga.TupleKey) error {
	args := m.Called(ctx, writes, deletes)
	return args.Error(0)
}

// Read implements the TupleStore interface
func (m *MockTupleStore) Read(ctx context.Context, filter *fga.ReadFilter) ([]fga.Tuple, error) {
	args := m.Called(ctx, filter)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]fga.Tuple), args.Error(1)
}

// ListObjects implements the TupleStore interface
func (m *MockTupleStore) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	args := m.Called(ctx, user, relation, objectType)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).([]string), args.Error(1)
}
