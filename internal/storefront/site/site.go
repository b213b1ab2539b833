// Package site embeds the storefront's static pages and assets.
package site

import (
	"embed"
	"io/fs"
)

//go:embed public
var embedded embed.FS

// FS is rooted at the site root: index.html, pages/, assets/.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
