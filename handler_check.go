// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"
)

// checkRequest is one parsed line of an access check message.
type checkRequest struct {
	OrgID  string
	UserID string
	Method string
	Object string
	Role   string
}

// extractCheckRequests parses our binary message payload format, a
// newline-delineated list of tab-separated fields:
// `org<TAB>user<TAB>method<TAB>object<TAB>role`.
func extractCheckRequests(payload []byte) ([]checkRequest, error) {
	requests := make([]checkRequest, 0)

	lines := bytes.Split(payload, []byte("\n"))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte("\t"))
		if len(fields) != 5 {
			return nil, fmt.Errorf("invalid check request: %s", line)
		}
		requests = append(requests, checkRequest{
			OrgID:  string(fields[0]),
			UserID: string(fields[1]),
			Method: string(fields[2]),
			Object: string(fields[3]),
			Role:   string(fields[4]),
		})
	}

	return requests, nil
}

// line returns the wire form of the request.
func (r checkRequest) line() string {
	return r.OrgID + "\t" + r.UserID + "\t" + r.Method + "\t" + r.Object + "\t" + r.Role
}

// checkDecisions answers each request from the cache where possible and
// the checker otherwise. The response is one line per request: the
// request line with the decision appended as a final tab-separated
// field.
func (h *HandlerService) checkDecisions(ctx context.Context, requests []checkRequest) ([]byte, error) {
	// Preallocate based on an expected line size of 80 bytes.
	message := make([]byte, 0, 80*len(requests))

	lastInvalidation, err := h.cache.lastInvalidation(ctx)
	if err != nil {
		return nil, err
	}

	for _, req := range requests {
		key := decisionKey(req.OrgID, req.UserID, req.Method, req.Object, req.Role)
		allowed, hit := h.cache.lookup(ctx, key, lastInvalidation)
		if !hit {
			allowed, err = h.checker.IsAllowed(ctx, req.OrgID, req.UserID, req.Method, req.Object, req.Role)
			if err != nil {
				return nil, err
			}
			h.cache.store(ctx, key, allowed)
		}
		message = append(message, []byte(req.line()+"\t"+strconv.FormatBool(allowed)+"\n")...)
	}

	// Trim the last newline and return.
	return message[:len(message)-1], nil
}

// accessCheckHandler handles access check requests from the NATS server.
func (h *HandlerService) accessCheckHandler(message INatsMsg) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.With("message", string(message.Data())).DebugContext(ctx, "handling access check request")

	requests, err := extractCheckRequests(message.Data())
	if err != nil {
		errText := "failed to extract check requests"
		logger.With(errKey, err).WarnContext(ctx, errText)
		if errRespond := respondIfRequested(ctx, message, []byte(errText)); errRespond != nil {
			return errRespond
		}
		return err
	}

	if len(requests) == 0 {
		errText := "no check requests found"
		logger.WarnContext(ctx, errText)
		if errRespond := respondIfRequested(ctx, message, []byte(errText)); errRespond != nil {
			return errRespond
		}
		// A message containing no check requests is not an error.
		return nil
	}

	response, err := h.checkDecisions(ctx, requests)
	if err != nil {
		errText := "failed to check permissions"
		logger.With(errKey, err).ErrorContext(ctx, errText)
		if errRespond := respondIfRequested(ctx, message, []byte(errText)); errRespond != nil {
			return errRespond
		}
		return err
	}

	if err := respondIfRequested(ctx, message, response); err != nil {
		return err
	}
	logger.With("count", len(requests)).DebugContext(ctx, "sent access check response")
	return nil
}
