// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	openfga "github.com/openfga/go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	. "github.com/openfga/go-sdk/client"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootstrapExistingStore(t *testing.T) {
	client := &MockClient{}
	client.On("ListStores", mock.Anything, mock.Anything).Return(&ClientListStoresResponse{
		Stores: []openfga.Store{
			{Id: "other", Name: "somebody-else"},
			{Id: "s1", Name: "visdata"},
		},
	}, nil)
	client.On("Configure", "s1", "").Return(nil)
	client.On("ReadAuthorizationModels", mock.Anything).Return(&ClientReadAuthorizationModelsResponse{
		AuthorizationModels: []openfga.AuthorizationModel{{Id: "m2"}, {Id: "m1"}},
	}, nil)
	client.On("Configure", "s1", "m2").Return(nil)

	g := NewGateway(client, Config{StoreName: "visdata"}, testLogger())
	storeID, modelID, err := g.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "s1", storeID)
	assert.Equal(t, "m2", modelID)
	assert.Equal(t, "s1", g.StoreID())
	assert.Equal(t, "m2", g.ModelID())
	// An existing store never gets seed tuples or a new model.
	client.AssertNotCalled(t, "CreateStore", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "WriteAuthorizationModel", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestBootstrapNewStore(t *testing.T) {
	client := &MockClient{}
	client.On("ListStores", mock.Anything, mock.Anything).Return(&ClientListStoresResponse{}, nil)
	client.On("CreateStore", mock.Anything, ClientCreateStoreRequest{Name: "visdata"}).
		Return(&ClientCreateStoreResponse{Id: "s-new"}, nil)
	client.On("Configure", "s-new", "").Return(nil)
	client.On("ReadAuthorizationModels", mock.Anything).Return(&ClientReadAuthorizationModelsResponse{}, nil)
	client.On("WriteAuthorizationModel", mock.Anything, mock.Anything).
		Return(&ClientWriteAuthorizationModelResponse{AuthorizationModelId: "m-new"}, nil)
	client.On("Configure", "s-new", "m-new").Return(nil)
	client.On("Write", mock.Anything, mock.Anything).Return(&ClientWriteResponse{}, nil)

	g := NewGateway(client, Config{StoreName: "visdata"}, testLogger())
	storeID, modelID, err := g.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "s-new", storeID)
	assert.Equal(t, "m-new", modelID)

	// Seed tuples go out in chunks of at most bootstrapChunkSize.
	writes := 0
	for _, call := range client.Calls {
		if call.Method != "Write" {
			continue
		}
		writes++
		req, ok := call.Arguments.Get(1).(ClientWriteRequest)
		require.True(t, ok)
		assert.LessOrEqual(t, len(req.Writes), bootstrapChunkSize)
	}
	expected := (len(InitialTuples()) + bootstrapChunkSize - 1) / bootstrapChunkSize
	assert.Equal(t, expected, writes)
}

func TestBootstrapSeedChunkFailureIsSkipped(t *testing.T) {
	client := &MockClient{}
	client.On("ListStores", mock.Anything, mock.Anything).Return(&ClientListStoresResponse{}, nil)
	client.On("CreateStore", mock.Anything, mock.Anything).
		Return(&ClientCreateStoreResponse{Id: "s-new"}, nil)
	client.On("Configure", mock.Anything, mock.Anything).Return(nil)
	client.On("ReadAuthorizationModels", mock.Anything).Return(&ClientReadAuthorizationModelsResponse{}, nil)
	client.On("WriteAuthorizationModel", mock.Anything, mock.Anything).
		Return(&ClientWriteAuthorizationModelResponse{AuthorizationModelId: "m-new"}, nil)
	client.On("Write", mock.Anything, mock.Anything).
		Return(&ClientWriteResponse{}, errors.New("tuple already exists"))

	g := NewGateway(client, Config{StoreName: "visdata"}, testLogger())
	_, _, err := g.Bootstrap(context.Background())

	// Seed write failures are logged and skipped, never fatal.
	require.NoError(t, err)
}

func TestBootstrapPinnedIDs(t *testing.T) {
	client := &MockClient{}
	client.On("Configure", "pinned-store", "pinned-model").Return(nil)

	g := NewGateway(client, Config{StoreID: "pinned-store", ModelID: "pinned-model"}, testLogger())
	storeID, modelID, err := g.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pinned-store", storeID)
	assert.Equal(t, "pinned-model", modelID)
	client.AssertNotCalled(t, "ListStores", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "ReadAuthorizationModels", mock.Anything)
}

func TestLatestModelIDNotFound(t *testing.T) {
	client := &MockClient{}
	client.On("ReadAuthorizationModels", mock.Anything).
		Return(&ClientReadAuthorizationModelsResponse{}, nil)

	g := NewGateway(client, Config{StoreID: "s1"}, testLogger())
	_, err := g.LatestModelID(context.Background())
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestCheck(t *testing.T) {
	client := &MockClient{}
	client.On("Check", mock.Anything, ClientCheckRequest{
		User:     "user:alice@example.com",
		Relation: "can_read",
		Object:   "logs:_all_default",
	}).Return(&ClientCheckResponse{
		CheckResponse: openfga.CheckResponse{Allowed: openfga.PtrBool(true)},
	}, nil)

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	allowed, err := g.Check(context.Background(), TupleKey{
		User:     "user:alice@example.com",
		Relation: "can_read",
		Object:   "logs:_all_default",
	})

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckBackendError(t *testing.T) {
	client := &MockClient{}
	client.On("Check", mock.Anything, mock.Anything).
		Return((*ClientCheckResponse)(nil), errors.New("connection refused"))

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	allowed, err := g.Check(context.Background(), TupleKey{User: "user:a", Relation: "can_read", Object: "logs:x"})

	assert.False(t, allowed)
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "check", be.Op)
}

func TestWriteNoop(t *testing.T) {
	client := &MockClient{}
	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())

	require.NoError(t, g.Write(context.Background(), nil, nil))
	client.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestWriteConvertsDeletes(t *testing.T) {
	client := &MockClient{}
	client.On("Write", mock.Anything, mock.MatchedBy(func(req ClientWriteRequest) bool {
		return len(req.Writes) == 1 && len(req.Deletes) == 1 &&
			req.Writes[0].User == "user:a" &&
			req.Deletes[0].Object == "org:default"
	})).Return(&ClientWriteResponse{}, nil)

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	err := g.Write(context.Background(),
		[]TupleKey{{User: "user:a", Relation: "editor", Object: "org:default"}},
		[]TupleKey{{User: "user:a", Relation: "viewer", Object: "org:default"}},
	)

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestReadPagination(t *testing.T) {
	client := &MockClient{}
	page1 := &ClientReadResponse{
		Tuples: []openfga.Tuple{
			{Key: openfga.TupleKey{User: "user:a", Relation: "assigned", Object: "role:default_dev"}},
		},
		ContinuationToken: "next",
	}
	page2 := &ClientReadResponse{
		Tuples: []openfga.Tuple{
			{Key: openfga.TupleKey{User: "user:b", Relation: "assigned", Object: "role:default_dev"}},
		},
	}
	client.On("Read", mock.Anything, mock.Anything, mock.MatchedBy(func(o ClientReadOptions) bool {
		return o.ContinuationToken == nil
	})).Return(page1, nil)
	client.On("Read", mock.Anything, mock.Anything, mock.MatchedBy(func(o ClientReadOptions) bool {
		return o.ContinuationToken != nil && *o.ContinuationToken == "next"
	})).Return(page2, nil)

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	tuples, err := g.Read(context.Background(), &ReadFilter{Object: "role:default_dev"})

	require.NoError(t, err)
	require.Len(t, tuples, 2)
	assert.Equal(t, "user:a", tuples[0].Key.User)
	assert.Equal(t, "user:b", tuples[1].Key.User)
}

func TestReadInMemoryFilter(t *testing.T) {
	client := &MockClient{}
	// A filter with no object cannot be pushed to the server; the request
	// must go out unconstrained and be filtered locally.
	client.On("Read", mock.Anything, ClientReadRequest{}, mock.Anything).Return(&ClientReadResponse{
		Tuples: []openfga.Tuple{
			{Key: openfga.TupleKey{User: "user:a", Relation: "assigned", Object: "role:default_dev"}},
			{Key: openfga.TupleKey{User: "user:a", Relation: "member", Object: "group:default_devs"}},
			{Key: openfga.TupleKey{User: "user:b", Relation: "assigned", Object: "role:default_ops"}},
		},
	}, nil)

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	tuples, err := g.Read(context.Background(), &ReadFilter{User: "user:a", Relation: "assigned"})

	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, "role:default_dev", tuples[0].Key.Object)
}

func TestListObjects(t *testing.T) {
	client := &MockClient{}
	client.On("ListObjects", mock.Anything, ClientListObjectsRequest{
		User:     "user:a",
		Relation: "can_read",
		Type:     "logs",
	}).Return(&ClientListObjectsResponse{Objects: []string{"logs:app", "logs:_all_default"}}, nil)

	g := NewGateway(client, Config{StoreID: "s1", ModelID: "m1"}, testLogger())
	objects, err := g.ListObjects(context.Background(), "user:a", "can_read", "logs")

	require.NoError(t, err)
	assert.Equal(t, []string{"logs:app", "logs:_all_default"}, objects)
}

func TestNotInitialized(t *testing.T) {
	g := NewGateway(&MockClient{}, Config{}, testLogger())

	_, err := g.Check(context.Background(), TupleKey{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	err = g.Write(context.Background(), []TupleKey{{User: "user:a", Relation: "editor", Object: "org:default"}}, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = g.Read(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
