// Package resolver wires the linked registry to one builder per (domain, role)
// and one compiled table per domain. It holds no globals; everything is
// immutable after New and safe for concurrent requests.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"DomainQL/internal/builder"
	"DomainQL/internal/cache"
	"DomainQL/internal/compiler"
	"DomainQL/internal/db"
	"DomainQL/internal/input"
	"DomainQL/internal/logger"
	"DomainQL/internal/model"
	"DomainQL/internal/query"
)

type Option func(*settings)

type settings struct {
	limits builder.Options
	counts cache.CountCache
}

// WithLimits sets the pagination bounds for roles that do not declare their own.
func WithLimits(o builder.Options) Option {
	return func(s *settings) { s.limits = o }
}

func WithCountCache(c cache.CountCache) Option {
	return func(s *settings) { s.counts = c }
}

type Resolver struct {
	registry *model.Registry
	builders map[string]map[string]*builder.Builder
	tables   map[string]*compiler.Table
}

func New(reg *model.Registry, exec db.Executor, opts ...Option) (*Resolver, error) {
	if reg == nil {
		return nil, errors.New("resolver: registry is nil")
	}
	if exec == nil {
		return nil, errors.New("resolver: executor is nil")
	}
	s := settings{limits: builder.DefaultOptions}
	for _, opt := range opts {
		opt(&s)
	}
	var tableOpts []compiler.Option
	if s.counts != nil {
		tableOpts = append(tableOpts, compiler.WithCountCache(s.counts))
	}

	r := &Resolver{
		registry: reg,
		builders: map[string]map[string]*builder.Builder{},
		tables:   map[string]*compiler.Table{},
	}
	for _, name := range reg.Names() {
		m, err := reg.Table(name)
		if err != nil {
			return nil, err
		}
		t, err := compiler.New(m, exec, tableOpts...)
		if err != nil {
			return nil, fmt.Errorf("resolver: %w", err)
		}
		r.tables[name] = t

		r.builders[name] = map[string]*builder.Builder{}
		for _, role := range reg.Roles(name) {
			v, err := reg.View(name, role)
			if err != nil {
				return nil, err
			}
			b, err := builder.New(v.Schema, roleLimits(s.limits, v))
			if err != nil {
				return nil, fmt.Errorf("resolver: %s/%s: %w", name, role, err)
			}
			r.builders[name][role] = b
		}
	}
	return r, nil
}

func roleLimits(base builder.Options, v *model.View) builder.Options {
	if v.MaxLimit > 0 {
		base.MaxLimit = v.MaxLimit
	}
	if v.DefaultLimit > 0 {
		base.DefaultLimit = v.DefaultLimit
	}
	return base
}

func (r *Resolver) Domains() []string {
	return r.registry.Names()
}

func (r *Resolver) Roles(domain string) []string {
	return r.registry.Roles(domain)
}

func (r *Resolver) builder(domain, role string) (*builder.Builder, error) {
	roles, ok := r.builders[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownDomain, domain)
	}
	b, ok := roles[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s for domain %s", model.ErrUnknownRole, role, domain)
	}
	return b, nil
}

// Build sanitizes raw for the role without touching the database.
func (r *Resolver) Build(domain, role string, raw input.Node) (*query.DomainRequest, []query.InputError, error) {
	b, err := r.builder(domain, role)
	if err != nil {
		return nil, nil, err
	}
	req, errs := b.Build(raw)
	return req, errs, nil
}

// Fetch builds and runs raw. Request errors end up in the result next to
// whatever the valid remainder returned; the Go error is only for an unknown
// domain or role.
func (r *Resolver) Fetch(ctx context.Context, domain, role string, raw input.Node) (*query.DomainResult, error) {
	req, errs, err := r.Build(domain, role, raw)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		logger.Warn("request_errors", map[string]any{
			"domain": domain,
			"role":   role,
			"errors": query.Messages(errs),
		})
	}
	res := r.tables[domain].Fetch(ctx, req)
	res.Errors = append(query.Messages(errs), res.Errors...)
	return res, nil
}

// Describe renders the role's view of domain.
func (r *Resolver) Describe(domain, role string) (map[string]any, error) {
	b, err := r.builder(domain, role)
	if err != nil {
		return nil, err
	}
	d := b.Domain().Describe()
	d["roles"] = r.Roles(domain)
	return d, nil
}
