package web

import (
	"embed"
	"io/fs"

	log "github.com/sirupsen/logrus"
)

//go:embed public templates
var content embed.FS

// PublicFS returns the public asset file system.
func PublicFS() fs.FS {
	sub, err := fs.Sub(content, "public")
	if err != nil {
		log.WithError(err).Fatal("failed to create public sub-filesystem")
	}
	return sub
}

// TemplatesFS returns the templates file system.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		log.WithError(err).Fatal("failed to create templates sub-filesystem")
	}
	return sub
}
