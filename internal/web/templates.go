package web

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	webembed "github.com/erazemk/inventar/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// pages are rendered inside layout.html.
var pages = []string{
	"index.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, errors.Wrap(err, "reading layout template")
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, errors.Wrapf(err, "reading template %s", page)
		}

		tmpl, err := template.New(page).Parse(string(layoutBytes))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing layout for %s", page)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", page)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.WithError(err).WithField("template", name).Error("failed to render template")
	}
}
