// Package catalog holds named groups of reference integer constants that the
// analysis package searches for in period digits. A default catalog is baked
// into the binary; a user YAML file can replace or extend its groups.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"repetend/internal/logging"
)

//go:embed default.yaml
var defaultYAML []byte

// MaxTarget bounds the constants used as search targets and moduli.
const MaxTarget = 1_000_000

// ErrInvalidCatalog reports a structurally invalid catalog document.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Constant is one named value, qualified by its group.
type Constant struct {
	Group string `yaml:"-" json:"group"`
	Name  string `yaml:"name" json:"name"`
	Value int64  `yaml:"value" json:"value"`
}

// QualifiedName is "group.name".
func (c Constant) QualifiedName() string {
	return c.Group + "." + c.Name
}

// Group is a named set of constants.
type Group struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Modular     bool       `yaml:"modular,omitempty" json:"modular,omitempty"`
	Constants   []Constant `yaml:"constants" json:"constants"`
}

// Catalog is an ordered list of groups.
type Catalog struct {
	Groups []Group `yaml:"groups" json:"groups"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.stamp()
	return &c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		// default.yaml is compiled in; a failure here is a build defect
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load returns the default catalog merged with the file at path. An empty
// path yields the default alone.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	user, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	merged := base.Merge(user)
	logging.Catalog("Loaded %d groups from %s (%d after merge)", len(user.Groups), path, len(merged.Groups))
	return merged, nil
}

// Validate checks that group names are unique and non-empty and that
// constant names are unique within their group.
func (c *Catalog) Validate() error {
	groups := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: group %d has no name", ErrInvalidCatalog, i)
		}
		if groups[g.Name] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidCatalog, g.Name)
		}
		groups[g.Name] = true

		names := make(map[string]bool, len(g.Constants))
		for j, k := range g.Constants {
			if k.Name == "" {
				return fmt.Errorf("%w: constant %d of group %q has no name", ErrInvalidCatalog, j, g.Name)
			}
			if names[k.Name] {
				return fmt.Errorf("%w: duplicate constant %q in group %q", ErrInvalidCatalog, k.Name, g.Name)
			}
			names[k.Name] = true
		}
	}
	return nil
}

func (c *Catalog) stamp() {
	for i := range c.Groups {
		for j := range c.Groups[i].Constants {
			c.Groups[i].Constants[j].Group = c.Groups[i].Name
		}
	}
}

// Merge returns a new catalog: groups of other replace same-named groups of
// c in place, the rest are appended in other's order.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{Groups: make([]Group, 0, len(c.Groups)+len(other.Groups))}
	index := make(map[string]int, len(c.Groups))
	for _, g := range c.Groups {
		index[g.Name] = len(out.Groups)
		out.Groups = append(out.Groups, cloneGroup(g))
	}
	for _, g := range other.Groups {
		if i, ok := index[g.Name]; ok {
			logging.CatalogDebug("Group %q overridden", g.Name)
			out.Groups[i] = cloneGroup(g)
			continue
		}
		index[g.Name] = len(out.Groups)
		out.Groups = append(out.Groups, cloneGroup(g))
	}
	out.stamp()
	return out
}

func cloneGroup(g Group) Group {
	g.Constants = append([]Constant(nil), g.Constants...)
	return g
}

// Group returns the named group.
func (c *Catalog) Group(name string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Constants flattens every group in catalog order.
func (c *Catalog) Constants() []Constant {
	var out []Constant
	for _, g := range c.Groups {
		out = append(out, g.Constants...)
	}
	return out
}

// ModularConstants flattens the groups marked modular.
func (c *Catalog) ModularConstants() []Constant {
	var out []Constant
	for _, g := range c.Groups {
		if g.Modular {
			out = append(out, g.Constants...)
		}
	}
	return out
}

// Targets returns the distinct values in (0, MaxTarget), ascending.
func (c *Catalog) Targets() []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, k := range c.Constants() {
		if k.Value <= 0 || k.Value >= MaxTarget || seen[k.Value] {
			continue
		}
		seen[k.Value] = true
		out = append(out, k.Value)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Marshal encodes the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
