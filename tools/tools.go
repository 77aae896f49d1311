//go:build tools
// +build tools

// Package tools documents the development tools this project expects.
// They are installed with `go install` rather than tracked in go.mod,
// since none of them are runtime dependencies.
package tools

// Tools:
//
// mockgen - regenerates the mocks in internal/mocks
//   Install: go install go.uber.org/mock/mockgen@v0.5.2
//   Run:     go generate ./internal/mocks
//
// Air - live reload during local development
//   Install: go install github.com/air-verse/air@v1.63.0
