package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// SCHEMA — Domain catalog for the rental-management reporting core
// ============================================================================
// Every reportable table is a Domain. A Domain declares its fields, which
// field plays which semantic Role, the unprefixed aliases legacy row shapes
// use for those roles, and how it joins to related domains.
//
// Joined rows name their columns "<domain>_<field>". The catalog is the
// single place that knows how to split such a key back into its parts.
// ============================================================================

// Role is the semantic purpose a column serves within a domain.
type Role string

const (
	RoleName     Role = "name"
	RoleAmount   Role = "amount"
	RoleDate     Role = "date"
	RoleType     Role = "type"
	RoleID       Role = "id"
	RoleCategory Role = "category" // any groupable text column
	RoleMeasure  Role = "measure"  // any summable numeric column
)

// Domain describes one reportable table.
type Domain struct {
	ID          string            `json:"id" yaml:"id"`
	DisplayName string            `json:"displayName" yaml:"display_name"`
	Fields      []string          `json:"fields" yaml:"fields"`
	Roles       map[Role][]string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Aliases     map[Role][]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Relations   []Relation        `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// Relation joins a domain to another one: <this>.LocalField = <Domain>.ForeignField.
type Relation struct {
	Domain       string `json:"domain" yaml:"domain"`
	LocalField   string `json:"localField" yaml:"local_field"`
	ForeignField string `json:"foreignField" yaml:"foreign_field"`
}

// Prefix returns the column prefix used for this domain in joined rows.
func (d Domain) Prefix() string {
	return d.ID + "_"
}

// HasField reports whether field is declared on the domain.
func (d Domain) HasField(field string) bool {
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// RoleFields returns the declared fields for a role, in preference order.
func (d Domain) RoleFields(role Role) []string {
	return d.Roles[role]
}

// RoleAliases returns the unprefixed canonical column names for a role.
func (d Domain) RoleAliases(role Role) []string {
	return d.Aliases[role]
}

// Column returns the joined column name for a field of this domain.
func (d Domain) Column(field string) string {
	return d.Prefix() + field
}

// ============================================================================
// CATALOG
// ============================================================================

// Catalog is an immutable, ordered set of domains.
type Catalog struct {
	domains []Domain
	byID    map[string]int
	// ids sorted longest first so prefix matching picks "rentals" over "rent".
	prefixOrder []string
}

// NewCatalog validates and indexes domains.
func NewCatalog(domains ...Domain) (Catalog, error) {
	c := Catalog{byID: make(map[string]int, len(domains))}
	for _, d := range domains {
		if d.ID == "" {
			return Catalog{}, fmt.Errorf("domain id is required")
		}
		if _, dup := c.byID[d.ID]; dup {
			return Catalog{}, fmt.Errorf("duplicate domain %q", d.ID)
		}
		c.byID[d.ID] = len(c.domains)
		c.domains = append(c.domains, d)
		c.prefixOrder = append(c.prefixOrder, d.ID)
	}
	for _, d := range c.domains {
		for _, rel := range d.Relations {
			if _, ok := c.byID[rel.Domain]; !ok {
				return Catalog{}, fmt.Errorf("domain %q relates to unknown domain %q", d.ID, rel.Domain)
			}
		}
	}
	sort.SliceStable(c.prefixOrder, func(i, j int) bool {
		return len(c.prefixOrder[i]) > len(c.prefixOrder[j])
	})
	return c, nil
}

// MustCatalog is NewCatalog that panics on invalid input. Meant for package-level catalogs.
func MustCatalog(domains ...Domain) Catalog {
	c, err := NewCatalog(domains...)
	if err != nil {
		panic(err)
	}
	return c
}

// Domain looks up a domain by id.
func (c Catalog) Domain(id string) (Domain, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Domain{}, false
	}
	return c.domains[i], true
}

// Domains returns all domains in declaration order.
func (c Catalog) Domains() []Domain {
	out := make([]Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// IDs returns all domain ids in declaration order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.domains))
	for i, d := range c.domains {
		ids[i] = d.ID
	}
	return ids
}

// Implied returns the secondary domains a primary domain is joined with.
func (c Catalog) Implied(id string) []string {
	d, ok := c.Domain(id)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(d.Relations))
	for _, rel := range d.Relations {
		out = append(out, rel.Domain)
	}
	return out
}

// SplitKey splits a joined column name into domain id and field.
// Unprefixed keys return ok=false.
func (c Catalog) SplitKey(key string) (domain, field string, ok bool) {
	for _, id := range c.prefixOrder {
		p := id + "_"
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return id, key[len(p):], true
		}
	}
	return "", key, false
}
