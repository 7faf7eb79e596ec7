// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package authorizer

import (
	"context"
	"sync"
	"time"

	"github.com/visdata/authz-service/pkg/fga"
)

// memStore is an in-memory TupleStore used for round-trip tests. Read
// matches the gateway's semantics: empty filter fields are unconstrained.
// Check answers true only for tuples present verbatim, and ListObjects
// serves canned responses, since neither can evaluate the authorization
// model.
type memStore struct {
	mu      sync.Mutex
	tuples  []fga.TupleKey
	objects map[string][]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]string{}}
}

func (s *memStore) Check(_ context.Context, key fga.TupleKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tuples {
		if t == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Write(_ context.Context, writes, deletes []fga.TupleKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		s.tuples = append(s.tuples, w)
	}
	for _, d := range deletes {
		for i, t := range s.tuples {
			if t == d {
				s.tuples = append(s.tuples[:i], s.tuples[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *memStore) Read(_ context.Context, filter *fga.ReadFilter) ([]fga.Tuple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []fga.Tuple
	for _, t := range s.tuples {
		if filter != nil {
			if filter.User != "" && filter.User != t.User {
				continue
			}
			if filter.Relation != "" && filter.Relation != t.Relation {
				continue
			}
			if filter.Object != "" && filter.Object != t.Object {
				continue
			}
		}
		out = append(out, fga.Tuple{Key: t, Timestamp: time.Now()})
	}
	return out, nil
}

func (s *memStore) ListObjects(_ context.Context, user, relation, objectType string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[user+"|"+relation+"|"+objectType], nil
}

func (s *memStore) setObjects(user, relation, objectType string, objects []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[user+"|"+relation+"|"+objectType] = objects
}

func (s *memStore) has(key fga.TupleKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tuples {
		if t == key {
			return true
		}
	}
	return false
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tuples)
}
