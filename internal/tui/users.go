package tui

import (
	"fmt"
	"strings"

	"github.com/Martyvole/timetracking/internal/store"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// usersModel is the profile selection screen shown before any tracking
// view. Every other view is scoped to the user chosen here.
type usersModel struct {
	store  *store.Store
	width  int
	height int

	users  []store.User
	cursor int

	formActive bool
	form       *huh.Form
	formName   *string
}

func newUsersModel(s *store.Store) usersModel {
	name := ""
	return usersModel{
		store:    s,
		formName: &name,
	}
}

func (u *usersModel) setSize(w, h int) {
	u.width = w
	u.height = h
}

type usersDataMsg struct {
	users []store.User
}

func (u usersModel) refresh() tea.Cmd {
	return func() tea.Msg {
		users, _ := u.store.ListUsers()
		return usersDataMsg{users: users}
	}
}

func (u usersModel) update(msg tea.Msg) (usersModel, tea.Cmd) {
	if u.formActive && u.form != nil {
		return u.updateForm(msg)
	}

	switch msg := msg.(type) {
	case usersDataMsg:
		u.users = msg.users
		if u.cursor >= len(u.users) {
			u.cursor = max(0, len(u.users)-1)
		}
		return u, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if u.cursor > 0 {
				u.cursor--
			}
		case key.Matches(msg, keys.Down):
			if u.cursor < len(u.users)-1 {
				u.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(u.users) > 0 {
				return u, u.selectUser(u.users[u.cursor].ID)
			}
		case key.Matches(msg, keys.New):
			return u.showNewUserForm()
		}
	}
	return u, nil
}

func (u usersModel) selectUser(id string) tea.Cmd {
	return func() tea.Msg {
		if err := u.store.SetCurrentUser(id); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		user, err := u.store.GetUser(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return userSelectedMsg{user: user}
	}
}

func (u usersModel) showNewUserForm() (usersModel, tea.Cmd) {
	*u.formName = ""

	u.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Your Name").Value(u.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	u.formActive = true
	return u, u.form.Init()
}

func (u usersModel) updateForm(msg tea.Msg) (usersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			u.formActive = false
			u.form = nil
			return u, nil
		}
	}

	form, cmd := u.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		u.form = f
	}

	if u.form.State == huh.StateCompleted {
		u.formActive = false
		name := *u.formName
		return u, func() tea.Msg {
			user, err := u.store.CreateUser(name)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			if err := u.store.SetCurrentUser(user.ID); err != nil {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return userSelectedMsg{user: user}
		}
	}

	return u, cmd
}

func (u usersModel) view() string {
	w := u.width - 4
	if w < 20 {
		w = 20
	}

	if u.formActive && u.form != nil {
		title := titleStyle.Render("New Profile")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", u.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Who is tracking?")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	if len(u.users) == 0 {
		rows = append(rows, mutedStyle.Render("No profiles yet. Press n to create one."))
		rows = append(rows, mutedStyle.Render("The first profile becomes the admin."))
	} else {
		for i, user := range u.users {
			cursor := "  "
			style := normalItemStyle
			if i == u.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			row := style.Render(cursor + user.Name)
			if user.IsAdmin {
				row += "  " + accentStyle.Render("admin")
			}
			rows = append(rows, row)
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  n: new profile  q: quit"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
