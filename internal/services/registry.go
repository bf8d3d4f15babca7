package services

import (
	"github.com/fyrsmithlabs/mepd/internal/collision"
	"github.com/fyrsmithlabs/mepd/internal/conflict"
	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/events"
	"github.com/fyrsmithlabs/mepd/internal/hanger"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
	"github.com/fyrsmithlabs/mepd/internal/routing"
	"github.com/fyrsmithlabs/mepd/internal/semantics"
)

// Registry provides access to all mepd engine components.
// Use accessor methods to retrieve individual components.
type Registry interface {
	Store() modelstore.Store
	Planner() *routing.Planner
	Detector() *collision.Detector
	Resolver() *conflict.Resolver
	Hangers() *hanger.Placer
	Semantics() *semantics.Validator
	Catalog() *constraint.Catalog
	Events() *events.Publisher
}

// Options configures the registry with component instances.
type Options struct {
	Store     modelstore.Store
	Planner   *routing.Planner
	Detector  *collision.Detector
	Resolver  *conflict.Resolver
	Hangers   *hanger.Placer
	Semantics *semantics.Validator
	Catalog   *constraint.Catalog
	Events    *events.Publisher
}

// registry is the concrete implementation of Registry.
type registry struct {
	store     modelstore.Store
	planner   *routing.Planner
	detector  *collision.Detector
	resolver  *conflict.Resolver
	hangers   *hanger.Placer
	semantics *semantics.Validator
	catalog   *constraint.Catalog
	events    *events.Publisher
}

// NewRegistry creates a new component registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		store:     opts.Store,
		planner:   opts.Planner,
		detector:  opts.Detector,
		resolver:  opts.Resolver,
		hangers:   opts.Hangers,
		semantics: opts.Semantics,
		catalog:   opts.Catalog,
		events:    opts.Events,
	}
}

func (r *registry) Store() modelstore.Store         { return r.store }
func (r *registry) Planner() *routing.Planner       { return r.planner }
func (r *registry) Detector() *collision.Detector   { return r.detector }
func (r *registry) Resolver() *conflict.Resolver    { return r.resolver }
func (r *registry) Hangers() *hanger.Placer         { return r.hangers }
func (r *registry) Semantics() *semantics.Validator { return r.semantics }
func (r *registry) Catalog() *constraint.Catalog    { return r.catalog }
func (r *registry) Events() *events.Publisher       { return r.events }
