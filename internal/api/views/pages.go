package views

// Base is shared by every page.
type Base struct {
	AppName string
	// Notice is a one-shot message shown above the page.
	Notice string
}

type LoginPage struct {
	Base
	Role          string
	Redirect      string
	Email         string
	Error         string
	StudentTabURL string
	AdminTabURL   string
	OIDCURL       string
}

// UserCard is the signed-in user as shown in the sidebar.
type UserCard struct {
	Name  string
	Email string
	Image string
}

type NavItem struct {
	Href   string
	Label  string
	Active bool
}

type DashboardPage struct {
	Base
	PanelTitle string
	Page       string
	User       UserCard
	Nav        []NavItem
}

type DeniedPage struct {
	Base
	LoginPath string
}

type LoadingPage struct {
	Base
	RefreshSeconds int
}
