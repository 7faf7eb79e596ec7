// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

// Package catalog holds the static table of resource types that the
// authorization layer accepts. It is the single source of truth for
// whether an object's resource-type prefix is valid input to every
// other component.
package catalog

import "sort"

// Resource is the static descriptor of one resource type.
type Resource struct {
	// Key is the stable identifier, e.g. "logs".
	Key string `json:"key"`
	// DisplayName is the human-readable label shown in the UI.
	DisplayName string `json:"display_name"`
	// Parent is the key of the parent resource type, empty for top-level
	// types.
	Parent string `json:"parent,omitempty"`
	// Order is the display sort order.
	Order int `json:"order"`
	// Visible reports whether the resource appears in the UI.
	Visible bool `json:"visible"`
	// TopLevel is derived: true when Parent is empty.
	TopLevel bool `json:"top_level"`
	// HasEntities reports whether individual instances of this resource
	// exist, as opposed to type-only resources like settings.
	HasEntities bool `json:"has_entities"`
}

func resource(key, displayName, parent string, order int, visible, hasEntities bool) Resource {
	return Resource{
		Key:         key,
		DisplayName: displayName,
		Parent:      parent,
		Order:       order,
		Visible:     visible,
		TopLevel:    parent == "",
		HasEntities: hasEntities,
	}
}

// resources is the full resource-type table. Loaded once; never mutated.
var resources = map[string]Resource{
	// Core types
	"user":  resource("user", "Users", "", 1, true, true),
	"group": resource("group", "Groups", "", 2, true, true),
	"role":  resource("role", "Roles", "", 3, true, true),
	"org":   resource("org", "Organizations", "", 4, true, false),

	// Stream hierarchy (data streams)
	"stream":   resource("stream", "Streams", "", 10, false, true),
	"logs":     resource("logs", "Logs", "stream", 11, true, true),
	"metrics":  resource("metrics", "Metrics", "stream", 12, true, true),
	"traces":   resource("traces", "Traces", "stream", 13, true, true),
	"metadata": resource("metadata", "Metadata", "stream", 14, false, true),
	"index":    resource("index", "Index", "stream", 15, true, true),

	// Dashboard hierarchy
	"dfolder":    resource("dfolder", "Dashboard Folders", "", 20, true, true),
	"dashboard":  resource("dashboard", "Dashboards", "dfolder", 21, true, true),
	"template":   resource("template", "Templates", "", 22, true, true),
	"savedviews": resource("savedviews", "Saved Views", "", 23, true, true),

	// Alert hierarchy
	"afolder":     resource("afolder", "Alert Folders", "", 30, true, true),
	"alert":       resource("alert", "Alerts", "afolder", 31, true, true),
	"destination": resource("destination", "Destinations", "", 32, true, true),

	// Report hierarchy
	"rfolder": resource("rfolder", "Report Folders", "", 40, true, true),
	"report":  resource("report", "Reports", "rfolder", 41, true, true),

	// Functions and pipelines
	"function": resource("function", "Functions", "", 50, true, true),
	"pipeline": resource("pipeline", "Pipelines", "", 51, true, true),

	// System resources
	"settings":         resource("settings", "Settings", "", 60, true, false),
	"kv":               resource("kv", "KV Store", "", 61, true, true),
	"enrichment_table": resource("enrichment_table", "Enrichment Tables", "", 62, true, true),
	"summary":          resource("summary", "Summary", "", 63, true, true),
	"syslog-route":     resource("syslog-route", "Syslog Routes", "", 64, true, true),

	// Security and authentication
	"passcode":         resource("passcode", "Passcodes", "", 70, true, true),
	"rumtoken":         resource("rumtoken", "RUM Tokens", "", 71, true, true),
	"service_accounts": resource("service_accounts", "Service Accounts", "", 72, true, true),
	"cipher_keys":      resource("cipher_keys", "Cipher Keys", "", 73, true, true),

	// Other resources
	"search_jobs":    resource("search_jobs", "Search Jobs", "", 80, true, true),
	"action_scripts": resource("action_scripts", "Action Scripts", "", 81, true, true),
	"ratelimit":      resource("ratelimit", "Rate Limits", "", 82, true, true),
	"ai":             resource("ai", "AI", "", 83, true, false),
	"re_patterns":    resource("re_patterns", "Regex Patterns", "", 84, true, true),
	"license":        resource("license", "License", "", 90, true, false),

	// Legacy aliases kept so that older clients using plural or squashed
	// names keep validating.
	"templates":       resource("templates", "Templates", "", 22, true, true),
	"functions":       resource("functions", "Functions", "", 50, true, true),
	"reports":         resource("reports", "Reports", "", 41, true, true),
	"destinations":    resource("destinations", "Destinations", "", 32, true, true),
	"alert_folders":   resource("alert_folders", "Alert Folders", "", 30, true, true),
	"serviceaccounts": resource("serviceaccounts", "Service Accounts", "", 72, true, true),
	"actionscripts":   resource("actionscripts", "Action Scripts", "", 81, true, true),
	"cipherkeys":      resource("cipherkeys", "Cipher Keys", "", 73, true, true),
}

// nonCloudResourceKeys are resource types not available in cloud
// deployments.
var nonCloudResourceKeys = map[string]struct{}{
	"license":     {},
	"cipher_keys": {},
}

// Get returns the resource descriptor for key.
func Get(key string) (Resource, bool) {
	r, ok := resources[key]
	return r, ok
}

// IsValid reports whether key names a known resource type.
func IsValid(key string) bool {
	_, ok := resources[key]
	return ok
}

// IsNonCloud reports whether the resource type is excluded from cloud
// deployments.
func IsNonCloud(key string) bool {
	_, ok := nonCloudResourceKeys[key]
	return ok
}

// AllVisible returns every visible resource, sorted by display order.
func AllVisible() []Resource {
	out := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.Visible {
			out = append(out, r)
		}
	}
	sortByOrder(out)
	return out
}

// TopLevelVisible returns every visible top-level resource, sorted by
// display order.
func TopLevelVisible() []Resource {
	var out []Resource
	for _, r := range resources {
		if r.TopLevel && r.Visible {
			out = append(out, r)
		}
	}
	sortByOrder(out)
	return out
}

// ChildrenOf returns the resources whose parent is parentKey, sorted by
// display order.
func ChildrenOf(parentKey string) []Resource {
	var out []Resource
	for _, r := range resources {
		if r.Parent == parentKey {
			out = append(out, r)
		}
	}
	sortByOrder(out)
	return out
}

func sortByOrder(rs []Resource) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Order != rs[j].Order {
			return rs[i].Order < rs[j].Order
		}
		return rs[i].Key < rs[j].Key
	})
}
