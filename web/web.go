// Package web provides the embedded web UI for browsing Flare sessions.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/flare/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"truncate":   truncate,
			"countLines": countLines,
			"kindClass":  kindClass,
			"isBuiltin":  isBuiltin,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page defines the same blocks, so the layout is parsed per page.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/sessions/:id", h.sessionDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Sessions    []store.SessionInfo
	RecentEvals []*evalView
	EvalCount   int64
	ErrorCount  int64
}

type evalView struct {
	*store.EvalRecord
	Session string
}

type sessionDetailContent struct {
	Info     store.SessionInfo
	Bindings []store.Binding
	History  []*store.EvalRecord
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	sessions := h.store.ListSessions()

	var infos []store.SessionInfo
	var recent []*evalView
	var evals, errs int64

	for _, sess := range sessions {
		info := sess.Info()
		infos = append(infos, info)
		evals += info.EvalCount
		errs += info.ErrorCount
		for _, rec := range sess.History() {
			recent = append(recent, &evalView{EvalRecord: rec, Session: sess.Name})
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdateTime.After(infos[j].UpdateTime)
	})
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Time.After(recent[j].Time)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Sessions:    infos,
		RecentEvals: recent,
		EvalCount:   evals,
		ErrorCount:  errs,
	})
}

func (h *Handler) sessionDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	sess, err := h.store.GetSession(id)
	if err != nil {
		c.Status(404)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Session '%s' not found", id),
		})
	}

	history := sess.History()
	// Newest first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return h.render(c, "session_detail.html", "sessions", sessionDetailContent{
		Info:     sess.Info(),
		Bindings: sess.Bindings(),
		History:  history,
	})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// kindClass maps an evaluation outcome to a CSS class.
func kindClass(rec *store.EvalRecord) string {
	if rec.Error != nil {
		return "state-failed"
	}
	return "state-succeeded"
}

// isBuiltin reports whether a binding is one of the arithmetic built-ins.
func isBuiltin(b store.Binding) bool {
	return b.Type == "func"
}

// truncate shortens s to maxLen characters.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
