// Package services provides the centralized service registry for mepd.
//
// Registry pattern for accessing the engine components (planner, detector,
// resolver, hanger placer, semantic validator) plus their shared
// collaborators (model store, constraint catalog, event publisher). Use
// NewRegistry() to create a registry with component instances, then accessor
// methods to retrieve individual components. Coordinator composes the
// components into the wire-level operations the HTTP and MCP surfaces expose.
package services
