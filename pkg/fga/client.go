// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// Package fga is the only package that talks to the OpenFGA backend. It
// exposes tuples as plain strings and keeps every SDK type behind the
// Client interface so that the services above it stay backend-agnostic.
package fga

import (
	"context"
	"net/http"
	"time"

	openfga "github.com/openfga/go-sdk"

	. "github.com/openfga/go-sdk/client"
)

// TupleKey is a single relationship tuple.
type TupleKey struct {
	User     string
	Relation string
	Object   string
}

// Tuple is a stored tuple with its write timestamp.
type Tuple struct {
	Key       TupleKey
	Timestamp time.Time
}

// ReadFilter constrains a Read. A nil filter or an empty field means no
// constraint on that position.
type ReadFilter struct {
	User     string
	Relation string
	Object   string
}

// Client is the set of OpenFGA client operations used by this service.
type Client interface {
	Check(ctx context.Context, req ClientCheckRequest) (*ClientCheckResponse, error)
	Write(ctx context.Context, req ClientWriteRequest) (*ClientWriteResponse, error)
	Read(ctx context.Context, req ClientReadRequest, options ClientReadOptions) (*ClientReadResponse, error)
	ListObjects(ctx context.Context, req ClientListObjectsRequest) (*ClientListObjectsResponse, error)
	ListStores(ctx context.Context, options ClientListStoresOptions) (*ClientListStoresResponse, error)
	CreateStore(ctx context.Context, req ClientCreateStoreRequest) (*ClientCreateStoreResponse, error)
	ReadAuthorizationModels(ctx context.Context) (*ClientReadAuthorizationModelsResponse, error)
	WriteAuthorizationModel(ctx context.Context, req ClientWriteAuthorizationModelRequest) (*ClientWriteAuthorizationModelResponse, error)
	Configure(storeID, modelID string) error
}

// Adapter is a wrapper around the OpenFGA client.
type Adapter struct {
	client  *OpenFgaClient
	apiURL  string
	timeout time.Duration
}

// NewAdapter builds an adapter connected to apiURL. storeID and modelID
// may be empty until bootstrap discovers them.
func NewAdapter(apiURL, storeID, modelID string, timeout time.Duration) (*Adapter, error) {
	a := &Adapter{apiURL: apiURL, timeout: timeout}
	if err := a.Configure(storeID, modelID); err != nil {
		return nil, err
	}
	return a, nil
}

// Configure rebuilds the underlying client with the given store and
// model ids.
func (a *Adapter) Configure(storeID, modelID string) error {
	client, err := NewSdkClient(&ClientConfiguration{
		ApiUrl:               a.apiURL,
		StoreId:              storeID,
		AuthorizationModelId: modelID,
		HTTPClient:           &http.Client{Timeout: a.timeout},
	})
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// Check executes a check request.
func (a *Adapter) Check(ctx context.Context, req ClientCheckRequest) (*ClientCheckResponse, error) {
	return a.client.Check(ctx).Body(req).Execute()
}

// Write executes a write request.
func (a *Adapter) Write(ctx context.Context, req ClientWriteRequest) (*ClientWriteResponse, error) {
	return a.client.Write(ctx).Body(req).Execute()
}

// Read executes a read request.
func (a *Adapter) Read(ctx context.Context, req ClientReadRequest, options ClientReadOptions) (*ClientReadResponse, error) {
	return a.client.Read(ctx).Body(req).Options(options).Execute()
}

// ListObjects executes a list-objects request.
func (a *Adapter) ListObjects(ctx context.Context, req ClientListObjectsRequest) (*ClientListObjectsResponse, error) {
	return a.client.ListObjects(ctx).Body(req).Execute()
}

// ListStores lists stores on the server.
func (a *Adapter) ListStores(ctx context.Context, options ClientListStoresOptions) (*ClientListStoresResponse, error) {
	return a.client.ListStores(ctx).Options(options).Execute()
}

// CreateStore creates a new store.
func (a *Adapter) CreateStore(ctx context.Context, req ClientCreateStoreRequest) (*ClientCreateStoreResponse, error) {
	return a.client.CreateStore(ctx).Body(req).Execute()
}

// ReadAuthorizationModels lists the store's authorization models, most
// recent first.
func (a *Adapter) ReadAuthorizationModels(ctx context.Context) (*ClientReadAuthorizationModelsResponse, error) {
	return a.client.ReadAuthorizationModels(ctx).Execute()
}

// WriteAuthorizationModel writes a new authorization model.
func (a *Adapter) WriteAuthorizationModel(ctx context.Context, req ClientWriteAuthorizationModelRequest) (*ClientWriteAuthorizationModelResponse, error) {
	return a.client.WriteAuthorizationModel(ctx).Body(req).Execute()
}

func toClientTupleKeys(keys []TupleKey) []ClientTupleKey {
	out := make([]ClientTupleKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, ClientTupleKey{
			User:     k.User,
			Relation: k.Relation,
			Object:   k.Object,
		})
	}
	return out
}

func toClientDeleteKeys(keys []TupleKey) []ClientTupleKeyWithoutCondition {
	out := make([]ClientTupleKeyWithoutCondition, 0, len(keys))
	for _, k := range keys {
		out = append(out, ClientTupleKeyWithoutCondition{
			User:     k.User,
			Relation: k.Relation,
			Object:   k.Object,
		})
	}
	return out
}

func fromSDKTuple(t openfga.Tuple) Tuple {
	key := t.GetKey()
	return Tuple{
		Key: TupleKey{
			User:     key.GetUser(),
			Relation: key.GetRelation(),
			Object:   key.GetObject(),
		},
		Timestamp: t.GetTimestamp(),
	}
}
