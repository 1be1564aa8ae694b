// Package web renders the HTML pages and carries one-shot flash messages
// between a redirect and the next page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

const flashCookie = "flash"

// Page is what every template receives.
type Page struct {
	Title    string
	Username string
	Flash    string
	Data     any
}

// Renderer holds one parsed template set per page, each combined with the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// relTimeRu mirrors humanize's default magnitudes with abbreviated Russian units.
var relTimeRu = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "только что", DivBy: time.Second},
	{D: time.Minute, Format: "%d сек. %s", DivBy: time.Second},
	{D: time.Hour, Format: "%d мин. %s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%d ч. %s", DivBy: time.Hour},
	{D: humanize.Week, Format: "%d дн. %s", DivBy: humanize.Day},
	{D: humanize.Month, Format: "%d нед. %s", DivBy: humanize.Week},
	{D: humanize.Year, Format: "%d мес. %s", DivBy: humanize.Month},
	{D: humanize.LongTime, Format: "%d г. %s", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "давно", DivBy: 1},
}

func ago(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "назад", "спустя", relTimeRu)
}

var funcs = template.FuncMap{
	"ago":   func(t time.Time) string { return ago(t, time.Now()) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"rank":  func(i int) int { return i + 1 },
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := strings.TrimSuffix(path.Base(name), ".html")
		if base == "layout" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// Render writes page name with status. Output is buffered so a template
// error still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) {
	t, ok := r.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("render template", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// SetFlash stores msg for the next page view.
func SetFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending flash message and clears it.
func PopFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// Redirect sets a flash message when msg is not empty and redirects with 303.
func Redirect(w http.ResponseWriter, r *http.Request, to, msg string) {
	if msg != "" {
		SetFlash(w, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
