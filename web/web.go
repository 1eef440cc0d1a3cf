// Package web provides the embedded web UI for browsing l-systems and
// their interpretations.
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

	"github.com/lemonberrylabs/lindenmaker/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// RecentLimit is the number of interpretations shown on the dashboard.
const RecentLimit = 10

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
			"shortName":        shortName,
			"timeAgo":          timeAgo,
			"formatTime":       formatTime,
			"duration":         duration,
			"stateClass":       stateClass,
			"stateIcon":        stateIcon,
			"truncate":         truncate,
			"lsystemID":        lsystemID,
			"interpretationID": interpretationID,
			"countLines":       countLines,
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
	app.Get("/ui/lsystems", h.lsystemList)
	app.Get("/ui/lsystems/:id", h.lsystemDetail)
	app.Get("/ui/interpretations", h.interpretationList)
	app.Get("/ui/interpretations/:lsystem/:interpretation", h.interpretationDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	LSystems       []*store.LSystem
	Recent         []*interpretationView
	ActiveCount    int
	SucceededCount int
	FailedCount    int
}

type interpretationView struct {
	*store.Interpretation
	LSystemID string
	InterpID  string
}

type lsystemListContent struct {
	LSystems []*lsystemView
}

type lsystemView struct {
	*store.LSystem
	ID                  string
	InterpretationCount int
	FailedCount         int
}

type lsystemDetailContent struct {
	LSystem         *store.LSystem
	ID              string
	Interpretations []*interpretationView
}

type interpretationListContent struct {
	Interpretations []*interpretationView
}

type interpretationDetailContent struct {
	Interpretation *store.Interpretation
	LSystemID      string
	InterpID       string
	Image          *svgImage
	Materials      []string
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	lsystems := h.store.ListLSystems()
	sort.Slice(lsystems, func(i, j int) bool {
		return lsystems[i].UpdateTime.After(lsystems[j].UpdateTime)
	})

	recent := h.views(h.store.ListInterpretations(""))
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	counts := h.store.Counts()
	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		LSystems:       lsystems,
		Recent:         recent,
		ActiveCount:    counts.Active,
		SucceededCount: counts.Succeeded,
		FailedCount:    counts.Failed,
	})
}

func (h *Handler) lsystemList(c *fiber.Ctx) error {
	lsystems := h.store.ListLSystems()

	var views []*lsystemView
	for _, ls := range lsystems {
		interps := h.store.ListInterpretations(ls.Name)
		failed := 0
		for _, in := range interps {
			if in.State == store.InterpretationFailed {
				failed++
			}
		}
		views = append(views, &lsystemView{
			LSystem:             ls,
			ID:                  lsystemID(ls.Name),
			InterpretationCount: len(interps),
			FailedCount:         failed,
		})
	}

	return h.render(c, "lsystem_list.html", "lsystems", lsystemListContent{
		LSystems: views,
	})
}

func (h *Handler) lsystemDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	name := store.LSystemName(id)

	ls, err := h.store.GetLSystem(name)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("L-system '%s' not found", id),
		})
	}

	return h.render(c, "lsystem_detail.html", "lsystems", lsystemDetailContent{
		LSystem:         ls,
		ID:              id,
		Interpretations: h.views(h.store.ListInterpretations(name)),
	})
}

func (h *Handler) interpretationList(c *fiber.Ctx) error {
	return h.render(c, "interpretation_list.html", "interpretations", interpretationListContent{
		Interpretations: h.views(h.store.ListInterpretations("")),
	})
}

func (h *Handler) interpretationDetail(c *fiber.Ctx) error {
	lsID := c.Params("lsystem")
	interpID := c.Params("interpretation")

	in, err := h.store.GetInterpretation(store.InterpretationName(lsID, interpID))
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Interpretation '%s' not found", interpID),
		})
	}

	content := interpretationDetailContent{
		Interpretation: in,
		LSystemID:      lsID,
		InterpID:       interpID,
	}
	if in.Scene != nil {
		content.Image = project(in.Scene, imageSize)
		content.Materials = in.Scene.Palette.Names()
	}
	return h.render(c, "interpretation_detail.html", "interpretations", content)
}

// views wraps interpretations for display, newest first.
func (h *Handler) views(interps []*store.Interpretation) []*interpretationView {
	sort.Slice(interps, func(i, j int) bool {
		return interps[i].StartTime.After(interps[j].StartTime)
	})
	views := make([]*interpretationView, 0, len(interps))
	for _, in := range interps {
		views = append(views, &interpretationView{
			Interpretation: in,
			LSystemID:      lsystemID(in.Name),
			InterpID:       interpretationID(in.Name),
		})
	}
	return views
}

// --- Template Helpers ---

func shortName(fullName string) string {
	parts := strings.Split(fullName, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return fullName
}

func lsystemID(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		if p == "lsystems" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return name
}

func interpretationID(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		if p == "interpretations" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return name
}

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

func duration(start, end time.Time) string {
	if end.IsZero() {
		return fmt.Sprintf("%s (running)", formatDuration(time.Since(start)))
	}
	return formatDuration(end.Sub(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func stateClass(state store.InterpretationState) string {
	switch state {
	case store.InterpretationActive:
		return "state-active"
	case store.InterpretationSucceeded:
		return "state-succeeded"
	case store.InterpretationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.InterpretationState) template.HTML {
	switch state {
	case store.InterpretationActive:
		return "&#9654;"
	case store.InterpretationSucceeded:
		return "&#10003;"
	case store.InterpretationFailed:
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

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
