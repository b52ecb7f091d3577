package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/datachat/internal/model/chat"
)

// AppTemplate is the fragment re-rendered on every state change.
const AppTemplate = "app"

// Renderer renders views with the entry template file.
type Renderer struct {
	page *template.Template
	name string
}

var funcs = template.FuncMap{
	"roleLabel": func(r chat.Role) string {
		switch r {
		case chat.RoleUser:
			return "You"
		case chat.RoleAssistant:
			return "Assistant"
		default:
			return "System"
		}
	},
	"lines": func(s string) []string {
		return strings.Split(s, "\n")
	},
}

// LoadRenderer parses the entry file. It must define an "app" template.
func LoadRenderer(path string) (*Renderer, error) {
	name := filepath.Base(path)
	tmpl, err := template.New(name).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse entry template %s: %w", path, err)
	}
	return newRenderer(tmpl, name)
}

// ParseRenderer parses an in-memory template, mainly for tests.
func ParseRenderer(name, src string) (*Renderer, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return newRenderer(tmpl, name)
}

func newRenderer(tmpl *template.Template, name string) (*Renderer, error) {
	if tmpl.Lookup(AppTemplate) == nil {
		return nil, fmt.Errorf("template %s does not define %q", name, AppTemplate)
	}
	return &Renderer{page: tmpl, name: name}, nil
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, v View) error {
	return r.page.ExecuteTemplate(w, r.name, v)
}

// Fragment renders only the app region for live updates.
func (r *Renderer) Fragment(v View) (string, error) {
	var buf bytes.Buffer
	if err := r.page.ExecuteTemplate(&buf, AppTemplate, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
