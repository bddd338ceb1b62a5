package tui

import "github.com/charmbracelet/bubbles/key"

type listKeys struct {
	Add, Edit, Toggle, Delete         key.Binding
	Remind, ClearRemind               key.Binding
	Filter, Search, ClearDone, Reload key.Binding
	Logout, Quit                      key.Binding
}

func (k listKeys) short() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.Search, k.Filter}
}

func (k listKeys) full() []key.Binding {
	return []key.Binding{
		k.Add, k.Edit, k.Toggle, k.Delete, k.Remind, k.ClearRemind,
		k.Filter, k.Search, k.ClearDone, k.Reload, k.Logout, k.Quit,
	}
}

var defaultListKeys = listKeys{
	Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done/undo")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Remind:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reminder")),
	ClearRemind: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "clear reminder")),
	Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	ClearDone:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
	Reload:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "reload")),
	Logout:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}
