package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jaibharat/management-hub/internal/api/views"
	"github.com/jaibharat/management-hub/internal/core/domain"
)

type navEntry struct {
	href          string
	label         string
	matchSubpaths bool
}

// panel describes one dashboard shell.
type panel struct {
	title        string
	prefix       string
	nav          []navEntry
	pages        map[string]bool
	fallbackName string
	fallbackMail string
	fallbackChar string
	avatarColors string
}

var adminPanel = panel{
	title:  "Admin Panel",
	prefix: "/admin/",
	nav: []navEntry{
		{href: "/admin/dashboard", label: "Dashboard", matchSubpaths: true},
		{href: "/admin/enroll-student", label: "Enroll Student"},
		{href: "/admin/students", label: "Manage Students"},
		{href: "/admin/courses", label: "Manage Courses"},
		{href: "/admin/certificates", label: "Certificates"},
		{href: "/admin/settings", label: "Settings"},
	},
	pages: map[string]bool{
		"dashboard": true, "enroll-student": true, "students": true,
		"courses": true, "certificates": true, "settings": true, "student-profile": true,
	},
	fallbackName: "Admin User",
	fallbackMail: "admin@example.com",
	fallbackChar: "A",
	avatarColors: "4B0082/E6E6FA",
}

var studentPanel = panel{
	title:  "Student Panel",
	prefix: "/student/",
	nav: []navEntry{
		{href: "/student/profile", label: "My Profile", matchSubpaths: true},
		{href: "/student/courses", label: "My Courses"},
		{href: "/student/results", label: "My Results"},
		{href: "/student/certificate", label: "My Certificate"},
		{href: "/student/settings", label: "Settings"},
		{href: "/contact?subject=student_support", label: "Support"},
	},
	pages: map[string]bool{
		"profile": true, "courses": true, "results": true, "certificate": true, "settings": true,
	},
	fallbackName: "Student User",
	fallbackMail: "student@example.com",
	fallbackChar: "S",
	avatarColors: "E6E6FA/4B0082",
}

// DashboardHandler renders the admin and student shells. Page bodies are
// filled client-side.
type DashboardHandler struct {
	appName string
}

func NewDashboardHandler(appName string) *DashboardHandler {
	return &DashboardHandler{appName: appName}
}

func (h *DashboardHandler) Admin(c echo.Context) error {
	return h.render(c, adminPanel)
}

func (h *DashboardHandler) Student(c echo.Context) error {
	return h.render(c, studentPanel)
}

func (h *DashboardHandler) render(c echo.Context, p panel) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	path := c.Request().URL.Path
	page, _, _ := strings.Cut(strings.TrimPrefix(path, p.prefix), "/")
	if !p.pages[page] {
		return echo.ErrNotFound
	}

	return c.Render(http.StatusOK, views.PageDashboard, views.DashboardPage{
		Base:       views.Base{AppName: h.appName, Notice: takeNotice(c)},
		PanelTitle: p.title,
		Page:       page,
		User:       p.userCard(id),
		Nav:        p.navItems(path),
	})
}

func (p panel) userCard(id domain.Identity) views.UserCard {
	card := views.UserCard{Name: id.DisplayName, Email: id.Email, Image: id.PhotoURL}
	if card.Name == "" {
		card.Name = p.fallbackName
	}
	if card.Email == "" {
		card.Email = p.fallbackMail
	}
	if card.Image == "" {
		card.Image = "https://placehold.co/100x100/" + p.avatarColors + "?text=" + avatarInitial(id, p.fallbackChar)
	}
	return card
}

// avatarInitial is the upper-cased first letter of the display name, else
// of the email, else fallback.
func avatarInitial(id domain.Identity, fallback string) string {
	for _, s := range []string{id.DisplayName, id.Email} {
		if s != "" {
			return strings.ToUpper(string([]rune(s)[:1]))
		}
	}
	return fallback
}

func (p panel) navItems(path string) []views.NavItem {
	items := make([]views.NavItem, 0, len(p.nav))
	for _, n := range p.nav {
		active := path == n.href
		if n.matchSubpaths {
			active = strings.HasPrefix(path, n.href)
		}
		items = append(items, views.NavItem{Href: n.href, Label: n.label, Active: active})
	}
	return items
}
