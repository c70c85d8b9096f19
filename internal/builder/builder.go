// Package builder turns one untrusted request into a sanitized
// query.DomainRequest for a single (domain, role) pair.
package builder

import (
	"errors"
	"fmt"

	"DomainQL/internal/input"
	"DomainQL/internal/query"
	"DomainQL/internal/schema"
)

type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultOptions are the pagination bounds used when a role sets none.
var DefaultOptions = Options{DefaultLimit: 100, MaxLimit: 5000}

type Builder struct {
	domain *schema.Domain
	opts   Options
}

func New(domain *schema.Domain, opts Options) (*Builder, error) {
	if domain == nil {
		return nil, errors.New("builder: domain is nil")
	}
	if len(domain.NaturalKey) == 0 {
		return nil, fmt.Errorf("builder: domain %q has an empty natural key", domain.Name)
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultOptions.MaxLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultOptions.DefaultLimit
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	return &Builder{domain: domain, opts: opts}, nil
}

func (b *Builder) Domain() *schema.Domain {
	return b.domain
}

// BuildJSON parses data and builds it. A payload that is not valid JSON or
// YAML is reported as a single option error.
func (b *Builder) BuildJSON(data []byte) (*query.DomainRequest, []query.InputError) {
	raw, err := input.Parse(data)
	if err != nil {
		req := b.empty()
		return req, []query.InputError{{Context: query.ContextOption, FieldName: "request", Reason: err.Error()}}
	}
	return b.Build(raw)
}

// Build sanitizes raw. The returned request is always usable: whatever failed
// validation is left out and reported.
func (b *Builder) Build(raw input.Node) (*query.DomainRequest, []query.InputError) {
	req := b.empty()
	if raw == nil {
		b.finish(req)
		return req, nil
	}
	obj, ok := raw.(*input.Object)
	if !ok {
		b.finish(req)
		return req, []query.InputError{{Context: query.ContextOption, FieldName: "request", Reason: "expected an object with fields, filters and options"}}
	}

	var errs []query.InputError
	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		switch key {
		case "fields":
			errs = append(errs, b.domain.Root.FindErrors(query.ContextSelected, value, "")...)
			errs = append(errs, b.domain.Root.SanitizeFields(value, req.Fields, "")...)
		case "filters":
			errs = append(errs, b.domain.Root.SanitizeFilters(value, req.Filters, query.And, "")...)
		case "options":
			errs = append(errs, b.options(value, &req.Options)...)
		default:
			errs = append(errs, query.InputError{Context: query.ContextOption, FieldName: key, Reason: "unknown request key"})
		}
	}
	b.finish(req)
	return req, errs
}

func (b *Builder) empty() *query.DomainRequest {
	return &query.DomainRequest{
		Name:       b.domain.Name,
		NaturalKey: b.domain.NaturalKey,
		Fields:     query.NewFieldSet(),
		Filters:    query.NewFilterTree(),
		Options:    query.Options{Pagination: query.Pagination{Limit: b.opts.DefaultLimit}},
	}
}

// finish applies the role restrictions and forces the natural key into fields.
func (b *Builder) finish(req *query.DomainRequest) {
	b.domain.Restrict(req.Filters, req.Fields)
	for _, key := range b.domain.NaturalKey {
		req.Fields.Select(key)
	}
}
