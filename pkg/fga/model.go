// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package fga

import (
	"encoding/json"
	"fmt"

	"github.com/visdata/authz-service/pkg/codec"
	"github.com/visdata/authz-service/pkg/constants"
	"github.com/visdata/authz-service/pkg/permission"

	. "github.com/openfga/go-sdk/client"
)

// canonicalResourceTypes is the ordered list of resource types written
// into the authorization model and seeded with org-wide wildcards.
// Aliases are resolved before tuples are built, so only canonical keys
// appear here.
var canonicalResourceTypes = []string{
	"stream", "logs", "metrics", "traces", "metadata", "index",
	"dfolder", "dashboard", "template", "savedviews",
	"afolder", "alert", "destination",
	"rfolder", "report",
	"function", "pipeline",
	"settings", "kv", "enrichment_table", "summary", "syslog-route",
	"passcode", "rumtoken", "service_accounts", "cipher_keys",
	"search_jobs", "action_scripts", "ratelimit", "ai", "re_patterns", "license",
}

// resourceParents maps a child resource type to the type its permission
// checks inherit from through the parent relation.
var resourceParents = map[string]string{
	"logs":      "stream",
	"metrics":   "stream",
	"traces":    "stream",
	"metadata":  "stream",
	"index":     "stream",
	"dashboard": "dfolder",
	"alert":     "afolder",
	"report":    "rfolder",
}

// selfParentTypes are folder types whose org-wide wildcard also governs
// the built-in default folder through the selfParent relation.
var selfParentTypes = []string{"dfolder", "afolder"}

var grantPermissions = []permission.Permission{
	permission.AllowAll,
	permission.AllowList,
	permission.AllowGet,
	permission.AllowPost,
	permission.AllowPut,
	permission.AllowDelete,
}

// DefaultModel returns the authorization model written into a freshly
// created store. The model is assembled as plain JSON and decoded into
// the SDK request type, which keeps the rewrite rules readable.
func DefaultModel() ClientWriteAuthorizationModelRequest {
	doc := map[string]any{
		"schema_version":   "1.1",
		"type_definitions": typeDefinitions(),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		// The document is built entirely from map/string literals.
		panic(fmt.Sprintf("marshal default model: %v", err))
	}
	var req ClientWriteAuthorizationModelRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		panic(fmt.Sprintf("decode default model: %v", err))
	}
	return req
}

func typeDefinitions() []map[string]any {
	defs := []map[string]any{
		orgTypeDef(),
		userTypeDef(),
		roleTypeDef(),
		groupTypeDef(),
	}
	for _, t := range canonicalResourceTypes {
		defs = append(defs, resourceTypeDef(t))
	}
	return defs
}

// orgTypeDef models the org itself: role membership relations are
// direct, and the org doubles as a resource so roles can grant access
// to org administration.
func orgTypeDef() map[string]any {
	d := newTypeDef("org")
	d.relation(constants.RelationAdmin, union(direct(), grant(permission.AllowAll)), typeRef("user"))
	d.relation(constants.RelationEditor, direct(), typeRef("user"))
	d.relation(constants.RelationViewer, direct(), typeRef("user"))
	d.relation(constants.RelationAllowedUser, direct(), typeRef("user"))
	d.relation(constants.RelationOrgContext, direct(), typeRef("user"))
	d.relation(constants.RelationMember, direct(), typeRef("user"), typeRef("org"))
	d.grants()
	d.relation("can_list", union(grant(permission.AllowList), computed(constants.RelationAdmin), computed(constants.RelationEditor), computed(constants.RelationViewer)))
	d.relation("can_read", union(grant(permission.AllowGet), computed(constants.RelationAdmin), computed(constants.RelationEditor), computed(constants.RelationViewer)))
	d.relation("can_create", union(grant(permission.AllowPost), computed(constants.RelationAdmin), computed(constants.RelationEditor)))
	d.relation("can_update", union(grant(permission.AllowPut), computed(constants.RelationAdmin), computed(constants.RelationEditor)))
	d.relation("can_delete", union(grant(permission.AllowDelete), computed(constants.RelationAdmin), computed(constants.RelationEditor)))
	return d.build()
}

func userTypeDef() map[string]any {
	d := newTypeDef("user")
	d.relation(constants.RelationOwningOrg, direct(), typeRef("org"))
	d.resourceChecks("", false)
	return d.build()
}

// roleTypeDef models custom roles. The has relation is the userset that
// permission grants point at: direct assignment plus membership in any
// group the role is attached to.
func roleTypeDef() map[string]any {
	d := newTypeDef("role")
	d.relation(constants.RelationOwningOrg, direct(), typeRef("org"))
	d.relation(constants.RelationAssigned, direct(), typeRef("user"))
	d.relation(constants.RelationGroupAssigned, direct(), typeRef("group"))
	d.relation(constants.RelationHas, union(
		computed(constants.RelationAssigned),
		viaTupleset(constants.RelationGroupAssigned, constants.RelationMember),
	))
	d.resourceChecks("", false)
	return d.build()
}

func groupTypeDef() map[string]any {
	d := newTypeDef("group")
	d.relation(constants.RelationOwningOrg, direct(), typeRef("org"))
	d.relation(constants.RelationMember, direct(), typeRef("user"))
	d.resourceChecks("", false)
	return d.build()
}

func resourceTypeDef(resourceType string) map[string]any {
	d := newTypeDef(resourceType)
	d.relation(constants.RelationOwningOrg, direct(), typeRef("org"))
	if parent, ok := resourceParents[resourceType]; ok {
		d.relation(constants.RelationParent, direct(), typeRef(parent))
	}
	selfParent := false
	for _, t := range selfParentTypes {
		if t == resourceType {
			selfParent = true
		}
	}
	if selfParent {
		d.relation(constants.RelationSelfParent, direct(), typeRef(resourceType))
	}
	d.relation(constants.RelationOwner, direct(), typeRef("user"))
	parentRel := ""
	if _, ok := resourceParents[resourceType]; ok {
		parentRel = constants.RelationParent
	}
	d.resourceChecks(parentRel, selfParent)
	return d.build()
}

// typeDef accumulates one type definition: its rewrite rules plus the
// directly-related-type metadata the 1.1 schema requires for every
// direct relation.
type typeDef struct {
	name      string
	relations map[string]any
	meta      map[string]any
}

func newTypeDef(name string) *typeDef {
	return &typeDef{
		name:      name,
		relations: map[string]any{},
		meta:      map[string]any{},
	}
}

func (d *typeDef) relation(name string, rewrite map[string]any, directTypes ...map[string]any) {
	d.relations[name] = rewrite
	if len(directTypes) > 0 {
		d.meta[name] = map[string]any{"directly_related_user_types": directTypes}
	}
}

// grants declares the six ALLOW_* relations, each assignable to a role's
// has userset.
func (d *typeDef) grants() {
	for _, p := range grantPermissions {
		d.relation(p.APIRelation(), direct(), usersetRef("role", constants.RelationHas))
	}
}

// resourceChecks declares the grant relations and the derived check
// relations for a resource type. parentRel, when non-empty, names the
// relation checks additionally inherit through; selfParent adds the
// folder self-inheritance edge.
func (d *typeDef) resourceChecks(parentRel string, selfParent bool) {
	d.grants()

	inherit := func(rel string) []map[string]any {
		var extra []map[string]any
		if parentRel != "" {
			extra = append(extra, viaTupleset(parentRel, rel))
		}
		if selfParent {
			extra = append(extra, viaTupleset(constants.RelationSelfParent, rel))
		}
		return extra
	}

	d.relation(constants.RelationAdmin, union(append([]map[string]any{
		grant(permission.AllowAll),
		viaTupleset(constants.RelationOwningOrg, constants.RelationAdmin),
	}, inherit(constants.RelationAdmin)...)...))

	readUnion := func(g permission.Permission, rel string) map[string]any {
		return union(append([]map[string]any{
			grant(g),
			computed(constants.RelationAdmin),
			viaTupleset(constants.RelationOwningOrg, constants.RelationEditor),
			viaTupleset(constants.RelationOwningOrg, constants.RelationViewer),
		}, inherit(rel)...)...)
	}
	writeUnion := func(g permission.Permission, rel string) map[string]any {
		return union(append([]map[string]any{
			grant(g),
			computed(constants.RelationAdmin),
			viaTupleset(constants.RelationOwningOrg, constants.RelationEditor),
		}, inherit(rel)...)...)
	}

	d.relation("can_list", readUnion(permission.AllowList, "can_list"))
	d.relation("can_read", readUnion(permission.AllowGet, "can_read"))
	d.relation("can_create", writeUnion(permission.AllowPost, "can_create"))
	d.relation("can_update", writeUnion(permission.AllowPut, "can_update"))
	d.relation("can_delete", writeUnion(permission.AllowDelete, "can_delete"))
}

func (d *typeDef) build() map[string]any {
	out := map[string]any{
		"type":      d.name,
		"relations": d.relations,
	}
	if len(d.meta) > 0 {
		out["metadata"] = map[string]any{"relations": d.meta}
	}
	return out
}

func direct() map[string]any {
	return map[string]any{"this": map[string]any{}}
}

func computed(relation string) map[string]any {
	return map[string]any{"computedUserset": map[string]any{"object": "", "relation": relation}}
}

func grant(p permission.Permission) map[string]any {
	return computed(p.APIRelation())
}

func viaTupleset(tupleset, relation string) map[string]any {
	return map[string]any{"tupleToUserset": map[string]any{
		"tupleset":        map[string]any{"object": "", "relation": tupleset},
		"computedUserset": map[string]any{"object": "", "relation": relation},
	}}
}

func union(children ...map[string]any) map[string]any {
	return map[string]any{"union": map[string]any{"child": children}}
}

func typeRef(t string) map[string]any {
	return map[string]any{"type": t}
}

func usersetRef(t, relation string) map[string]any {
	return map[string]any{"type": t, "relation": relation}
}

// Bootstrap identities seeded into a new store.
const (
	rootUserEmail = "root@visdata.com"
	defaultOrgID  = "default"
	metaOrgID     = "_meta"
)

// OrgSeedTuples returns the structural tuples every org needs: ownership
// of each resource type's org-wide wildcard, the stream and folder
// inheritance edges, and the built-in default folders.
func OrgSeedTuples(orgID string) []TupleKey {
	var tuples []TupleKey
	org := codec.OrgObject(orgID)

	for _, t := range canonicalResourceTypes {
		tuples = append(tuples, TupleKey{
			User:     org,
			Relation: constants.RelationOwningOrg,
			Object:   codec.ResourceObjectAll(orgID, t),
		})
	}

	for _, child := range canonicalResourceTypes {
		parent, ok := resourceParents[child]
		if !ok {
			continue
		}
		tuples = append(tuples, TupleKey{
			User:     codec.ResourceObjectAll(orgID, parent),
			Relation: constants.RelationParent,
			Object:   codec.ResourceObjectAll(orgID, child),
		})
	}

	for _, t := range selfParentTypes {
		tuples = append(tuples, TupleKey{
			User:     codec.ResourceObjectAll(orgID, t),
			Relation: constants.RelationSelfParent,
			Object:   codec.ResourceObject(orgID, t, "default"),
		})
	}

	return tuples
}

// InitialTuples returns the seed tuples for a freshly created store: the
// root user's administration of the default and meta orgs, each org's
// structural tuples, and the meta org's audit log stream.
func InitialTuples() []TupleKey {
	var tuples []TupleKey
	root := codec.UserObject(rootUserEmail)

	for _, orgID := range []string{defaultOrgID, metaOrgID} {
		tuples = append(tuples,
			TupleKey{User: root, Relation: constants.RelationAdmin, Object: codec.OrgObject(orgID)},
			TupleKey{User: root, Relation: constants.RelationOrgContext, Object: codec.OrgObject(orgID)},
		)
		tuples = append(tuples, OrgSeedTuples(orgID)...)
	}

	// The audit log stream lives in the meta org.
	tuples = append(tuples, TupleKey{
		User:     codec.OrgObject(metaOrgID),
		Relation: constants.RelationOwningOrg,
		Object:   codec.ResourceObject(metaOrgID, "logs", "audit"),
	})

	return tuples
}
