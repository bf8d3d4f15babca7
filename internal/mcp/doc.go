// Package mcp exposes the coordination engines over the Model Context
// Protocol so agent tooling can route elements, resolve collisions, and
// place hangers without going through the HTTP API.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and serves on the stdio transport. Tools delegate to the same service
// registry the daemon uses, so results match the HTTP endpoints exactly.
package mcp
