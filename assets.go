// Package orderdesk provides embedded assets for production builds.
package orderdesk

import "embed"

// Embedded assets for production builds.
// In dev mode (IsDev=true), templates and static files are loaded from disk
// for hot reloading; in production they are served from these filesystems.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
