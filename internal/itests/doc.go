// Package itests runs the resolver and the HTTP API against a real Postgres
// started with testcontainers. Run with `go test -tags integration ./internal/itests`.
package itests
