// Package webui embeds the browser shim that connects a page to the agent.
package webui

import (
	"embed"
	"io/fs"
)

// distFS contains the shim assets under webui/dist.
//
//go:embed dist
var distFS embed.FS

// DistFS returns an fs.FS rooted at the embedded dist directory.
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
