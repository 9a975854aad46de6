// Package web provides the embedded web UI for the deskcalc server.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tapelabs/deskcalc/pkg/calc"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	hist    *history.History
	sheets  []*worksheet.Worksheet
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. The worksheet list is fixed at startup,
// matching serve mode where worksheets load once before Listen.
func New(hist *history.History, sheets []*worksheet.Worksheet) *Handler {
	return &Handler{
		hist:   hist,
		sheets: sheets,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parse templates fresh each time for the page-specific template
	// This avoids the Go template issue where define blocks conflict across pages
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
	app.Get("/ui/history", h.historyPage)
	app.Get("/ui/worksheets", h.worksheetsPage)
	app.Post("/ui/evaluate", h.evaluateForm)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Recent         []*history.Entry
	Total          int
	SucceededCount int
	FailedCount    int
	WorksheetCount int
}

type historyContent struct {
	Entries []*history.Entry
}

type worksheetView struct {
	Name        string
	Description string
	Expressions int
}

type worksheetsContent struct {
	Worksheets []worksheetView
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	entries := h.hist.List()

	var succeeded, failed int
	for _, e := range entries {
		if e.State == history.EntrySucceeded {
			succeeded++
		} else {
			failed++
		}
	}

	recent := entries
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Recent:         recent,
		Total:          len(entries),
		SucceededCount: succeeded,
		FailedCount:    failed,
		WorksheetCount: len(h.sheets),
	})
}

func (h *Handler) historyPage(c *fiber.Ctx) error {
	return h.render(c, "history.html", "history", historyContent{
		Entries: h.hist.List(),
	})
}

func (h *Handler) worksheetsPage(c *fiber.Ctx) error {
	views := make([]worksheetView, 0, len(h.sheets))
	for _, ws := range h.sheets {
		views = append(views, worksheetView{
			Name:        ws.Name,
			Description: ws.Description,
			Expressions: len(ws.Expressions),
		})
	}

	return h.render(c, "worksheets.html", "worksheets", worksheetsContent{
		Worksheets: views,
	})
}

// evaluateForm handles the dashboard's expression form. The outcome lands at
// the head of the history, so the redirect back to the dashboard shows it.
func (h *Handler) evaluateForm(c *fiber.Ctx) error {
	expr := strings.TrimSpace(c.FormValue("expression"))
	if expr != "" {
		v, err := calc.Evaluate(expr)
		h.hist.Record(expr, v, err)
	}
	return c.Redirect("/ui")
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "—"
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
		return "—"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state history.EntryState) string {
	switch state {
	case history.EntrySucceeded:
		return "state-succeeded"
	case history.EntryFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state history.EntryState) template.HTML {
	switch state {
	case history.EntrySucceeded:
		return "&#10003;"
	case history.EntryFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
