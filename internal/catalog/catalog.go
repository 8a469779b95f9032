// Package catalog holds the static list of packages offered for
// installation, grouped into ordered categories.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid catalog")
	// ErrUnknownPackage is returned by Lookup for names not in the catalog.
	ErrUnknownPackage = errors.New("unknown package")
)

// Package is one installable item.
type Package struct {
	Name     string `yaml:"name" validate:"required"`
	ID       string `yaml:"id" validate:"required,nospace"`
	Category string `yaml:"-"`
}

// Category is a named, ordered group of packages.
type Category struct {
	Name     string    `yaml:"name" validate:"required"`
	Packages []Package `yaml:"packages" validate:"required,min=1,dive"`
}

// Catalog is the full package list in display order.
type Catalog struct {
	Categories []Category `yaml:"categories" validate:"required,min=1,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
	})
	return v
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// DefaultYAML returns the built-in catalog source, a starting point for
// a custom catalog file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault loads path, or returns the built-in catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes YAML and validates the result.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for ci := range c.Categories {
		cat := &c.Categories[ci]
		for pi := range cat.Packages {
			cat.Packages[pi].Category = cat.Name
		}
	}
	return &c, nil
}

// Validate checks required fields and that identifiers are unique.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[string]string)
	for _, cat := range c.Categories {
		for _, p := range cat.Packages {
			key := strings.ToLower(p.ID)
			if prev, dup := seen[key]; dup {
				return fmt.Errorf("%w: id %q used by both %q and %q", ErrInvalid, p.ID, prev, p.Name)
			}
			seen[key] = p.Name
		}
	}
	return nil
}

// All returns every package, flattened in display order.
func (c *Catalog) All() []Package {
	var out []Package
	for _, cat := range c.Categories {
		out = append(out, cat.Packages...)
	}
	return out
}

// Len is the number of packages.
func (c *Catalog) Len() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Packages)
	}
	return n
}

// Lookup finds a package by identifier or display name, case-insensitively.
// Identifiers win over names.
func (c *Catalog) Lookup(query string) (Package, error) {
	q := strings.TrimSpace(query)
	var byName *Package
	for _, cat := range c.Categories {
		for i := range cat.Packages {
			p := &cat.Packages[i]
			if strings.EqualFold(p.ID, q) {
				return *p, nil
			}
			if byName == nil && strings.EqualFold(p.Name, q) {
				byName = p
			}
		}
	}
	if byName != nil {
		return *byName, nil
	}
	return Package{}, fmt.Errorf("%w: %q", ErrUnknownPackage, query)
}

// Resolve looks up each query in order.
func (c *Catalog) Resolve(queries []string) ([]Package, error) {
	out := make([]Package, 0, len(queries))
	for _, q := range queries {
		p, err := c.Lookup(q)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
