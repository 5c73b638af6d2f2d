package assets

import "embed"

// WebFS holds the status page served at /.
//
//go:embed web
var WebFS embed.FS
