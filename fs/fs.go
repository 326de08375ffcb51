package appfs

import "embed"

//go:embed migrations all:templates
var FS embed.FS
