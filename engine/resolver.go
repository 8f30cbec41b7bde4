package engine

import (
	"strings"
	"time"

	"github.com/spektr-org/rentalcharts/schema"
)

// ============================================================================
// FIELD RESOLVER — Which column of a row plays a role for a domain
// ============================================================================
// Resolution order (keys scanned in sorted order, first match wins):
//   1. Declared schema: "<domain>_<field>" for each field the catalog
//      declares for the role
//   2. Name heuristics: "<domain>_*" columns containing a role token
//   3. Unprefixed aliases the catalog declares ("client_name", "amount")
//
// A candidate is only accepted if its value has the role's shape.
// A miss is not an error; callers skip the row.
// ============================================================================

var roleTokens = map[schema.Role][]string{
	schema.RoleName:   {"name"},
	schema.RoleAmount: {"amount"},
	schema.RoleDate:   {"date", "created_at"},
	schema.RoleType:   {"type"},
}

// Resolver locates role columns in rows. Safe for concurrent use.
type Resolver struct {
	catalog schema.Catalog
	loc     *time.Location
}

// NewResolver creates a resolver over a catalog. Dates without a zone are
// read in loc (UTC when nil).
func NewResolver(catalog schema.Catalog, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{catalog: catalog, loc: loc}
}

// Resolve returns the column of row holding role for domain.
// keys must be the sorted column names of the row set.
func (r *Resolver) Resolve(keys []string, row Row, domain string, role schema.Role) (string, bool) {
	if row == nil {
		return "", false
	}
	d, known := r.catalog.Domain(domain)
	prefix := domain + "_"

	if known {
		for _, field := range d.RoleFields(role) {
			key := prefix + field
			if r.accepts(role, key, row[key]) {
				return key, true
			}
		}
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || !hasRoleToken(role, key[len(prefix):]) {
			continue
		}
		if r.accepts(role, key, row[key]) {
			return key, true
		}
	}

	if known {
		for _, alias := range d.RoleAliases(role) {
			if r.accepts(role, alias, row[alias]) {
				return alias, true
			}
		}
	}

	// Generic roles may come from any column once the domain has none.
	if role == schema.RoleCategory || role == schema.RoleMeasure {
		for _, key := range keys {
			if r.accepts(role, key, row[key]) {
				return key, true
			}
		}
	}
	return "", false
}

// Text resolves a name/type/category role and returns its value.
func (r *Resolver) Text(keys []string, row Row, domain string, role schema.Role) (string, bool) {
	key, ok := r.Resolve(keys, row, domain, role)
	if !ok {
		return "", false
	}
	return schema.ToText(row[key])
}

// Number resolves an amount/measure role and returns its value.
func (r *Resolver) Number(keys []string, row Row, domain string, role schema.Role) (float64, bool) {
	key, ok := r.Resolve(keys, row, domain, role)
	if !ok {
		return 0, false
	}
	return schema.ToFloat(row[key])
}

// Time resolves a date role and returns its value.
func (r *Resolver) Time(keys []string, row Row, domain string, role schema.Role) (time.Time, bool) {
	key, ok := r.Resolve(keys, row, domain, role)
	if !ok {
		return time.Time{}, false
	}
	return schema.ToTime(row[key], r.loc)
}

// JoinHit reports whether row carries data joined from domain.
// An explicit "<domain>_joined" flag wins; otherwise any non-nil
// "<domain>_*" value counts as a hit.
func (r *Resolver) JoinHit(keys []string, row Row, domain string) bool {
	prefix := domain + "_"
	flag := prefix + "joined"
	if v, ok := row[flag]; ok {
		return truthy(v)
	}
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) && row[key] != nil {
			return true
		}
	}
	return false
}

func (r *Resolver) accepts(role schema.Role, key string, v any) bool {
	if v == nil {
		return false
	}
	switch role {
	case schema.RoleName, schema.RoleType:
		return !schema.IsIDLike(key) && schema.IsText(v)
	case schema.RoleCategory:
		if schema.IsIDLike(key) || schema.IsTimestampLike(key) {
			return false
		}
		return schema.IsText(v) && !schema.IsNumeric(v) && !schema.IsDate(v)
	case schema.RoleAmount:
		return !schema.IsIDLike(key) && schema.IsNumeric(v)
	case schema.RoleMeasure:
		if schema.IsIDLike(key) || schema.IsTimestampLike(key) {
			return false
		}
		return schema.IsNumeric(v)
	case schema.RoleDate:
		_, ok := schema.ToTime(v, r.loc)
		return ok
	case schema.RoleID:
		return true
	}
	return false
}

func hasRoleToken(role schema.Role, field string) bool {
	switch role {
	case schema.RoleID:
		return field == "id" || strings.HasSuffix(field, "_id")
	case schema.RoleCategory, schema.RoleMeasure:
		return true
	}
	for _, token := range roleTokens[role] {
		if strings.Contains(field, token) {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "true" || s == "1" || s == "yes" || s == "t"
	}
	if f, ok := schema.ToFloat(v); ok {
		return f != 0
	}
	return false
}
