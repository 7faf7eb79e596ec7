// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	openfga "github.com/openfga/go-sdk"

	. "github.com/openfga/go-sdk/client"
)

const (
	// readPageSize is the page size used for tuple reads.
	readPageSize int32 = 100
	// bootstrapChunkSize bounds a single bootstrap write batch.
	bootstrapChunkSize = 50
)

// Gateway is the tuple-store facade over the OpenFGA backend. All tuple
// reads and writes in the service go through it.
type Gateway struct {
	client Client
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	storeID string
	modelID string
}

// NewGateway builds a gateway. Store and model ids from cfg are used as
// pins; Bootstrap fills in whatever is missing.
func NewGateway(client Client, cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		storeID: cfg.StoreID,
		modelID: cfg.ModelID,
	}
}

// StoreID returns the resolved store id, empty before bootstrap.
func (g *Gateway) StoreID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.storeID
}

// ModelID returns the resolved authorization model id, empty before
// bootstrap.
func (g *Gateway) ModelID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.modelID
}

// Bootstrap resolves the store and model ids, creating the store and
// writing the default model when absent. Seed tuples are written only
// for a store created by this call; an existing store's tuples are
// authoritative and are left alone.
func (g *Gateway) Bootstrap(ctx context.Context) (storeID, modelID string, err error) {
	storeID = g.StoreID()
	created := false

	if storeID == "" {
		storeID, err = g.findStoreByName(ctx, g.cfg.StoreName)
		if err != nil {
			return "", "", err
		}
	}
	if storeID == "" {
		resp, err := g.client.CreateStore(ctx, ClientCreateStoreRequest{Name: g.cfg.StoreName})
		if err != nil {
			return "", "", backendErr("create store", err)
		}
		storeID = resp.GetId()
		created = true
		g.logger.Info("created authorization store", "store_name", g.cfg.StoreName, "store_id", storeID)
	}

	g.setIDs(storeID, g.ModelID())
	if err := g.client.Configure(storeID, g.ModelID()); err != nil {
		return "", "", backendErr("configure client", err)
	}

	modelID = g.ModelID()
	if modelID == "" {
		modelID, err = g.LatestModelID(ctx)
		if err != nil && !errors.Is(err, ErrModelNotFound) {
			return "", "", err
		}
	}
	if modelID == "" {
		modelID, err = g.WriteModel(ctx, DefaultModel())
		if err != nil {
			return "", "", err
		}
		g.logger.Info("wrote default authorization model", "model_id", modelID)
	}

	g.setIDs(storeID, modelID)
	if err := g.client.Configure(storeID, modelID); err != nil {
		return "", "", backendErr("configure client", err)
	}

	if created {
		g.seedTuples(ctx, InitialTuples())
	}
	return storeID, modelID, nil
}

func (g *Gateway) setIDs(storeID, modelID string) {
	g.mu.Lock()
	g.storeID = storeID
	g.modelID = modelID
	g.mu.Unlock()
}

// findStoreByName pages through the server's stores and returns the id
// of the first store named name, or empty when none matches.
func (g *Gateway) findStoreByName(ctx context.Context, name string) (string, error) {
	var continuation string
	for {
		options := ClientListStoresOptions{}
		if continuation != "" {
			options.ContinuationToken = openfga.PtrString(continuation)
		}
		resp, err := g.client.ListStores(ctx, options)
		if err != nil {
			return "", backendErr("list stores", err)
		}
		for _, store := range resp.GetStores() {
			if store.GetName() == name {
				return store.GetId(), nil
			}
		}
		continuation = resp.GetContinuationToken()
		if continuation == "" {
			return "", nil
		}
	}
}

// seedTuples writes the initial tuples in chunks, best effort: a failed
// chunk is logged and skipped so that a partially conflicting seed does
// not abort startup.
func (g *Gateway) seedTuples(ctx context.Context, tuples []TupleKey) {
	for start := 0; start < len(tuples); start += bootstrapChunkSize {
		end := min(start+bootstrapChunkSize, len(tuples))
		if err := g.Write(ctx, tuples[start:end], nil); err != nil {
			g.logger.With(errKey, err).Warn("skipping seed tuple chunk", "offset", start)
		}
	}
	g.logger.Info("seeded initial tuples", "count", len(tuples))
}

// LatestModelID returns the most recent authorization model id, or
// ErrModelNotFound when the store has none.
func (g *Gateway) LatestModelID(ctx context.Context) (string, error) {
	if err := g.ensureReady(false); err != nil {
		return "", err
	}
	resp, err := g.client.ReadAuthorizationModels(ctx)
	if err != nil {
		return "", backendErr("read authorization models", err)
	}
	models := resp.GetAuthorizationModels()
	if len(models) == 0 {
		return "", ErrModelNotFound
	}
	// The server returns models most recent first.
	return models[0].GetId(), nil
}

// WriteModel writes an authorization model and returns its id.
func (g *Gateway) WriteModel(ctx context.Context, model ClientWriteAuthorizationModelRequest) (string, error) {
	if err := g.ensureReady(false); err != nil {
		return "", err
	}
	resp, err := g.client.WriteAuthorizationModel(ctx, model)
	if err != nil {
		return "", backendErr("write authorization model", err)
	}
	return resp.GetAuthorizationModelId(), nil
}

// Check evaluates a single tuple against the authorization model.
func (g *Gateway) Check(ctx context.Context, key TupleKey) (bool, error) {
	if err := g.ensureReady(true); err != nil {
		return false, err
	}
	resp, err := g.client.Check(ctx, ClientCheckRequest{
		User:     key.User,
		Relation: key.Relation,
		Object:   key.Object,
	})
	if err != nil {
		return false, backendErr("check", err)
	}
	return resp.GetAllowed(), nil
}

// Write applies tuple writes and deletes in one transaction. A call with
// nothing to do is a no-op.
func (g *Gateway) Write(ctx context.Context, writes, deletes []TupleKey) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}
	if err := g.ensureReady(true); err != nil {
		return err
	}
	req := ClientWriteRequest{}
	if len(writes) > 0 {
		req.Writes = toClientTupleKeys(writes)
	}
	if len(deletes) > 0 {
		req.Deletes = toClientDeleteKeys(deletes)
	}
	if _, err := g.client.Write(ctx, req); err != nil {
		return backendErr("write", err)
	}
	return nil
}

// Read returns every tuple matching filter, paging through the backend.
// The server can only filter when an object (or at least an object type)
// is present; for filters without one, all tuples are read and matched
// in memory on user and relation equality.
func (g *Gateway) Read(ctx context.Context, filter *ReadFilter) ([]Tuple, error) {
	if err := g.ensureReady(true); err != nil {
		return nil, err
	}

	req := ClientReadRequest{}
	serverSide := filter != nil && filter.Object != ""
	if serverSide {
		req.Object = openfga.PtrString(filter.Object)
		if filter.User != "" {
			req.User = openfga.PtrString(filter.User)
		}
		if filter.Relation != "" {
			req.Relation = openfga.PtrString(filter.Relation)
		}
	}

	var out []Tuple
	var continuation string
	for {
		options := ClientReadOptions{PageSize: openfga.PtrInt32(readPageSize)}
		if continuation != "" {
			options.ContinuationToken = openfga.PtrString(continuation)
		}
		resp, err := g.client.Read(ctx, req, options)
		if err != nil {
			return nil, backendErr("read", err)
		}
		for _, t := range resp.Tuples {
			tuple := fromSDKTuple(t)
			if !serverSide && !matches(filter, tuple.Key) {
				continue
			}
			out = append(out, tuple)
		}
		continuation = resp.ContinuationToken
		if continuation == "" {
			return out, nil
		}
	}
}

func matches(filter *ReadFilter, key TupleKey) bool {
	if filter == nil {
		return true
	}
	if filter.User != "" && filter.User != key.User {
		return false
	}
	if filter.Relation != "" && filter.Relation != key.Relation {
		return false
	}
	return true
}

// ListObjects returns the object ids of objectType on which user holds
// relation, including ids reachable through usersets and wildcards.
func (g *Gateway) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	if err := g.ensureReady(true); err != nil {
		return nil, err
	}
	resp, err := g.client.ListObjects(ctx, ClientListObjectsRequest{
		User:     user,
		Relation: relation,
		Type:     objectType,
	})
	if err != nil {
		return nil, backendErr("list objects", err)
	}
	return resp.GetObjects(), nil
}

// ensureReady guards tuple operations against running before bootstrap.
func (g *Gateway) ensureReady(needModel bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.storeID == "" {
		return ErrNotInitialized
	}
	if needModel && g.modelID == "" {
		return ErrNotInitialized
	}
	return nil
}
