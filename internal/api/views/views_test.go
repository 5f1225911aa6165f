package views

import (
	"bytes"
	"strings"
	"testing"
)

func render(t *testing.T, name string, data any) string {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data, nil); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestRender_Denied(t *testing.T) {
	out := render(t, PageDenied, DeniedPage{LoginPath: "/auth/login?role=admin"})

	if !strings.Contains(out, "Access Denied") {
		t.Fatalf("missing heading: %s", out)
	}
	if !strings.Contains(out, `href="/auth/login?role=admin"`) {
		t.Fatalf("missing login link: %s", out)
	}
}

func TestRender_LoadingRefreshes(t *testing.T) {
	out := render(t, PageLoading, LoadingPage{RefreshSeconds: 1})

	if !strings.Contains(out, `http-equiv="refresh" content="1"`) {
		t.Fatalf("missing refresh: %s", out)
	}
	if !strings.Contains(out, "Loading...") {
		t.Fatalf("missing indicator: %s", out)
	}
}

func TestRender_LoginEscapesInput(t *testing.T) {
	out := render(t, PageLogin, LoginPage{
		Base:     Base{AppName: "Hub", Notice: "Logout failed"},
		Role:     "admin",
		Redirect: "/admin/students?q=<x>",
		Email:    `"><script>`,
	})

	if strings.Contains(out, "<script>") {
		t.Fatalf("unescaped input: %s", out)
	}
	if !strings.Contains(out, "Logout failed") {
		t.Fatalf("missing notice: %s", out)
	}
	if !strings.Contains(out, `name="role" value="admin"`) {
		t.Fatalf("missing role: %s", out)
	}
}

func TestRender_Dashboard(t *testing.T) {
	out := render(t, PageDashboard, DashboardPage{
		Base:       Base{AppName: "Hub"},
		PanelTitle: "Admin Panel",
		User:       UserCard{Name: "Admin User", Email: "admin@example.com", Image: "https://placehold.co/100x100/4B0082/E6E6FA?text=A"},
		Nav:        []NavItem{{Href: "/admin/dashboard", Label: "Dashboard", Active: true}},
	})

	for _, want := range []string{"Admin Panel", "Admin User", `class="active"`, "/auth/logout"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "nope", nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
