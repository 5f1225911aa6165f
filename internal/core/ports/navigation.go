package ports

// NavigateOptions mirrors the router options of the navigation surface.
type NavigateOptions struct {
	Replace bool
}

// Navigator moves the viewer to another location.
type Navigator interface {
	Navigate(path string, opts NavigateOptions)
	CurrentPath() string
}

// View renders with the props it is given and knows nothing of guards.
type View interface {
	Render(props map[string]any)
}

// ViewFunc adapts a plain function to View.
type ViewFunc func(props map[string]any)

func (f ViewFunc) Render(props map[string]any) { f(props) }
