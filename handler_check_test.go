// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for all tests
	if logger == nil {
		logOptions := &slog.HandlerOptions{}

		// Optional debug logging.
		if os.Getenv("DEBUG") != "" {
			logOptions.Level = slog.LevelDebug
			logOptions.AddSource = true
		}

		logger = slog.New(slog.NewTextHandler(os.Stdout, logOptions))
		slog.SetDefault(logger)
	}
}

// setupService creates a HandlerService with mocked collaborators.
func setupService() *HandlerService {
	return &HandlerService{
		checker: &MockChecker{},
		roles:   &MockRoleAdmin{},
		groups:  &MockGroupAdmin{},
		orgs:    &MockOrgAdmin{},
		cache:   &decisionCache{bucket: NewMockKeyValue()},
	}
}

func TestExtractCheckRequests(t *testing.T) {
	requests, err := extractCheckRequests([]byte(
		"default\talice@x.com\tGET\tlogs:app\tuser\n" +
			"default\tbob@x.com\tDELETE\tdashboard:d1\teditor\n"))
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, checkRequest{
		OrgID: "default", UserID: "alice@x.com", Method: "GET", Object: "logs:app", Role: "user",
	}, requests[0])
	assert.Equal(t, "default\tbob@x.com\tDELETE\tdashboard:d1\teditor", requests[1].line())
}

func TestExtractCheckRequestsInvalid(t *testing.T) {
	_, err := extractCheckRequests([]byte("not-enough-fields"))
	assert.Error(t, err)

	_, err = extractCheckRequests([]byte("a\tb\tc\td\te\tf"))
	assert.Error(t, err)

	// Empty payloads parse to zero requests without error.
	requests, err := extractCheckRequests(nil)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestAccessCheckHandler(t *testing.T) {
	service := setupService()
	msg := CreateMockNatsMsg([]byte("default\talice@x.com\tGET\tlogs:app\tuser"))

	service.checker.(*MockChecker).On("IsAllowed",
		mock.Anything, "default", "alice@x.com", "GET", "logs:app", "user").Return(true, nil)
	msg.On("Respond", []byte("default\talice@x.com\tGET\tlogs:app\tuser\ttrue")).Return(nil).Once()

	err := service.accessCheckHandler(msg)
	require.NoError(t, err)
	msg.AssertExpectations(t)
	service.checker.(*MockChecker).AssertExpectations(t)
}

func TestAccessCheckHandlerMultiple(t *testing.T) {
	service := setupService()
	msg := CreateMockNatsMsg([]byte(
		"default\talice@x.com\tGET\tlogs:app\tuser\n" +
			"default\talice@x.com\tDELETE\tlogs:app\tuser"))

	service.checker.(*MockChecker).On("IsAllowed",
		mock.Anything, "default", "alice@x.com", "GET", "logs:app", "user").Return(true, nil)
	service.checker.(*MockChecker).On("IsAllowed",
		mock.Anything, "default", "alice@x.com", "DELETE", "logs:app", "user").Return(false, nil)
	msg.On("Respond", []byte(
		"default\talice@x.com\tGET\tlogs:app\tuser\ttrue\n"+
			"default\talice@x.com\tDELETE\tlogs:app\tuser\tfalse")).Return(nil).Once()

	require.NoError(t, service.accessCheckHandler(msg))
	msg.AssertExpectations(t)
}

func TestAccessCheckHandlerInvalidFormat(t *testing.T) {
	service := setupService()
	msg := CreateMockNatsMsg([]byte("invalid-format"))
	msg.On("Respond", []byte("failed to extract check requests")).Return(nil).Once()

	err := service.accessCheckHandler(msg)
	assert.Error(t, err)
	msg.AssertExpectations(t)
	service.checker.(*MockChecker).AssertNotCalled(t, "IsAllowed")
}

func TestAccessCheckHandlerEmptyPayload(t *testing.T) {
	service := setupService()
	msg := CreateMockNatsMsg(nil)
	msg.On("Respond", []byte("no check requests found")).Return(nil).Once()

	// An empty message is acknowledged but is not an error.
	require.NoError(t, service.accessCheckHandler(msg))
	msg.AssertExpectations(t)
}

func TestAccessCheckHandlerCacheHit(t *testing.T) {
	service := setupService()
	bucket := service.cache.bucket.(*MockKeyValue)

	key := decisionKey("default", "alice@x.com", "GET", "logs:app", "user")
	bucket.PutAt(key, []byte("true"), time.Now())

	msg := CreateMockNatsMsg([]byte("default\talice@x.com\tGET\tlogs:app\tuser"))
	msg.On("Respond", []byte("default\talice@x.com\tGET\tlogs:app\tuser\ttrue")).Return(nil).Once()

	require.NoError(t, service.accessCheckHandler(msg))
	// Served entirely from the cache.
	service.checker.(*MockChecker).AssertNotCalled(t, "IsAllowed")
	msg.AssertExpectations(t)
}

func TestAccessCheckHandlerStaleCacheEntry(t *testing.T) {
	service := setupService()
	bucket := service.cache.bucket.(*MockKeyValue)

	key := decisionKey("default", "alice@x.com", "GET", "logs:app", "user")
	// Entry predates the invalidation marker, so it must be ignored.
	bucket.PutAt(key, []byte("true"), time.Now().Add(-time.Hour))
	bucket.PutAt("inv", []byte("1"), time.Now())

	service.checker.(*MockChecker).On("IsAllowed",
		mock.Anything, "default", "alice@x.com", "GET", "logs:app", "user").Return(false, nil)

	msg := CreateMockNatsMsg([]byte("default\talice@x.com\tGET\tlogs:app\tuser"))
	msg.On("Respond", []byte("default\talice@x.com\tGET\tlogs:app\tuser\tfalse")).Return(nil).Once()

	require.NoError(t, service.accessCheckHandler(msg))
	service.checker.(*MockChecker).AssertExpectations(t)
	msg.AssertExpectations(t)
}

func TestDecisionKeyIsSubjectSafe(t *testing.T) {
	key := decisionKey("default", "alice@x.com", "GET", "logs:app", "user")
	require.True(t, strings.HasPrefix(key, "dec."))
	for _, r := range key[len("dec."):] {
		valid := (r >= 'A' && r <= 'Z') || (r >= '2' && r <= '7')
		assert.True(t, valid, "character %q not allowed in cache key", r)
	}
	// Distinct requests must never collide.
	other := decisionKey("default", "alice@x.com", "GET", "logs:app", "editor")
	assert.NotEqual(t, key, other)
}
