// Package web serves the HTML side of the service: the landing page and
// the public assets.
package web

import (
	"context"
	"io/fs"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	webembed "github.com/erazemk/inventar/web"
)

// ItemCounter reports how many items are stored.
type ItemCounter interface {
	Count(ctx context.Context) (int, error)
}

// Server holds the dependencies of the page handlers.
type Server struct {
	Items     ItemCounter
	Templates *Templates
	Title     string
}

// NewServer loads the templates and returns a ready Server.
func NewServer(items ItemCounter) (*Server, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{Items: items, Templates: templates, Title: "Inventory"}, nil
}

// Landing handles GET /.
func (s *Server) Landing(w http.ResponseWriter, r *http.Request) {
	count, err := s.Items.Count(r.Context())
	if err != nil {
		// The page is still useful without the count.
		log.WithError(err).Error("failed to count items for landing page")
	}

	s.Templates.Render(w, "index.html", &struct {
		Title string
		Count int
	}{
		Title: s.Title,
		Count: count,
	})
}

// PublicFS returns the public assets: dir when set, the embedded copy otherwise.
func PublicFS(dir string) (fs.FS, error) {
	if dir == "" {
		return webembed.PublicFS(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid}
	}
	return os.DirFS(dir), nil
}
