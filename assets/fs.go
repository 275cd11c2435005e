// Package assets bundles the static files the binaries need at runtime.
package assets

import "embed"

//go:embed templates
var FS embed.FS
