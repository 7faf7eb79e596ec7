// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"context"

	"github.com/stretchr/testify/mock"

	. "github.com/openfga/go-sdk/client"
)

// MockClient is a mock implementation of the Client interface.
type MockClient struct {
	mock.Mock
}

// Check implements the Client interface
func (m *MockClient) Check(ctx context.Context, req ClientCheckRequest) (*ClientCheckResponse, error) {
	args := m.Called(ctx, req)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientCheckResponse), args.Error(1)
}

// Write implements the Client interface
func (m *MockClient) Write(ctx context.Context, req ClientWriteRequest) (*ClientWriteResponse, error) {
	args := m.Called(ctx, req)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientWriteResponse), args.Error(1)
}

// Read implements the Client interface
func (m *MockClient) Read(ctx context.Context, req ClientReadRequest, options ClientReadOptions) (*ClientReadResponse, error) {
	args := m.Called(ctx, req, options)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientReadResponse), args.Error(1)
}

// ListObjects implements the Client interface
func (m *MockClient) ListObjects(ctx context.Context, req ClientListObjectsRequest) (*ClientListObjectsResponse, error) {
	args := m.Called(ctx, req)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientListObjectsResponse), args.Error(1)
}

// ListStores implements the Client interface
func (m *MockClient) ListStores(ctx context.Context, options ClientListStoresOptions) (*ClientListStoresResponse, error) {
	args := m.Called(ctx, options)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientListStoresResponse), args.Error(1)
}

// CreateStore implements the Client interface
func (m *MockClient) CreateStore(ctx context.Context, req ClientCreateStoreRequest) (*ClientCreateStoreResponse, error) {
	args := m.Called(ctx, req)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientCreateStoreResponse), args.Error(1)
}

// ReadAuthorizationModels implements the Client interface
func (m *MockClient) ReadAuthorizationModels(ctx context.Context) (*ClientReadAuthorizationModelsResponse, error) {
	args := m.Called(ctx)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientReadAuthorizationModelsResponse), args.Error(1)
}

// WriteAuthorizationModel implements the Client interface
func (m *MockClient) WriteAuthorizationModel(ctx context.Context, req ClientWriteAuthorizationModelRequest) (*ClientWriteAuthorizationModelResponse, error) {
	args := m.Called(ctx, req)
	//nolint:errcheck // the error is passed through to the caller
	return args.Get(0).(*ClientWriteAuthorizationModelResponse), args.Error(1)
}

// Configure implements the Client interface
func (m *MockClient) Configure(storeID, modelID string) error {
	args := m.Called(storeID, modelID)
	return args.Error(0)
}
