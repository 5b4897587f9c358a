// Package view renders the blog's HTML pages.
//
// TEMPLATE COMPOSITION:
// base.html defines the page frame and calls {{template "content" .}}. Every
// page file defines its own "content" block, so each page is parsed into its
// own template set (base + page) to keep the blocks from overwriting each
// other. All sets are parsed once at startup from the embedded files.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/blog/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names. Each one is templates/<name>.html.
const (
	PageFront         = "front"
	PagePermalink     = "permalink"
	PageNewPost       = "newpost"
	PageEditPost      = "editpost"
	PageDeletePost    = "deletepost"
	PageComment       = "comment"
	PageViewComment   = "viewcomment"
	PageEditComment   = "editcomment"
	PageDeleteComment = "deletecomment"
	PageSignup        = "signup"
	PageLogin         = "login"
	PageWelcome       = "welcome"
	PageMyPosts       = "myposts"
	PageError         = "error"
)

var pages = []string{
	PageFront, PagePermalink, PageNewPost, PageEditPost, PageDeletePost,
	PageComment, PageViewComment, PageEditComment, PageDeleteComment,
	PageSignup, PageLogin, PageWelcome, PageMyPosts, PageError,
}

// Data is everything a page may display. Handlers fill in what they need;
// templates ignore the rest.
type Data struct {
	User     *model.User // logged-in user, nil for anonymous requests
	Title    string
	Post     *model.Post
	Posts    []model.Post
	Comment  *model.Comment
	Comments []model.Comment
	Form     map[string]string // submitted values, echoed back on re-render
	Errors   map[string]string // field name -> message
	Error    string            // page-level message
	PrevPage int               // front page pagination; 0 means none
	NextPage int
}

var funcs = template.FuncMap{
	"nl2br": nl2br,
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
}

// nl2br escapes s and turns its line breaks into <br> tags.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// Renderer executes the parsed page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// New parses every page. It fails if any template is missing or broken, so
// a bad template stops the server at startup rather than on first request.
func New(logger *slog.Logger) (*Renderer, error) {
	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("view: parsing base template: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, name := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("view: cloning base for %s: %w", name, err)
		}
		t, err := clone.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with the given status.
//
// The page is rendered into a buffer first: a template error is caught
// before anything reaches the client, and the client gets a plain 500
// instead of half a page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Data) {
	t, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Debug("client went away during render", slog.String("error", err.Error()))
	}
}
