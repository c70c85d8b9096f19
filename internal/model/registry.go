package model

import (
	"errors"
	"fmt"
	"sort"

	"DomainQL/internal/mapping"
	"DomainQL/internal/schema"
)

var (
	ErrUnknownDomain = errors.New("unknown domain")
	ErrUnknownRole   = errors.New("unknown role")
)

// View is what one role sees of a domain. Zero limits mean the global ones.
type View struct {
	Schema       *schema.Domain
	DefaultLimit int
	MaxLimit     int
}

// Registry holds every linked domain. It is read-only once Link returns.
type Registry struct {
	names  []string
	tables map[string]*mapping.Table
	views  map[string]map[string]*View
}

// LoadRegistry loads and links every domain file of dir.
func LoadRegistry(dir string) (*Registry, error) {
	domains, err := Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	r, err := Link(domains)
	if err != nil {
		return nil, fmt.Errorf("link error: %w", err)
	}
	r.logStats()
	return r, nil
}

// Link validates the domains, builds their tables and role views, then binds
// every cross-domain reference by name.
func Link(domains []*Domain) (*Registry, error) {
	r := &Registry{
		tables: make(map[string]*mapping.Table, len(domains)),
		views:  make(map[string]map[string]*View, len(domains)),
	}
	for _, d := range domains {
		if _, dup := r.tables[d.Name]; dup {
			return nil, fmt.Errorf("domain %s declared twice", d.Name)
		}
		if err := validateDomain(d); err != nil {
			return nil, err
		}
		t, err := buildTable(d)
		if err != nil {
			return nil, err
		}
		views := make(map[string]*View, len(d.Roles))
		for role, rc := range d.Roles {
			v, err := buildView(d, role, rc)
			if err != nil {
				return nil, err
			}
			views[role] = v
		}
		r.names = append(r.names, d.Name)
		r.tables[d.Name] = t
		r.views[d.Name] = views
	}
	sort.Strings(r.names)
	if err := r.link(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Names() []string {
	return r.names
}

func (r *Registry) Table(domain string) (*mapping.Table, error) {
	t, ok := r.tables[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return t, nil
}

// Roles lists the roles a domain declares, sorted.
func (r *Registry) Roles(domain string) []string {
	roles := make([]string, 0, len(r.views[domain]))
	for role := range r.views[domain] {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// View returns the role's view of domain. Unlike linked domains, the top-level
// domain must declare the role itself.
func (r *Registry) View(domain, role string) (*View, error) {
	roles, ok := r.views[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	v, ok := roles[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s for domain %s", ErrUnknownRole, role, domain)
	}
	return v, nil
}
