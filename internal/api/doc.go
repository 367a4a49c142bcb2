// Package api provides the HTTP REST API and WebSocket event stream for
// the iotmock server.
//
// Handlers are a stateless façade: each request resolves the caller from
// its bearer token, performs a single read or mutation on the injected
// stores, and writes a serialised snapshot. Validation happens before any
// store access, so a failed request never leaves partial state behind.
//
// The server follows the usual lifecycle pattern:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
