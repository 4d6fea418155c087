package web

import "embed"

//go:embed index.html
var Assets embed.FS
