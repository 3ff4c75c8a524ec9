package ui

import (
	"context"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/domain"
	"github.com/skobkin/ponyexpress/internal/query"
)

const navPaneOffset = 0.28

// chatShell is the layout of every protected route: the navigation pane on
// the left and the route's panel on the right.
type chatShell struct {
	nav   *navPane
	right *fyne.Container
	split *container.Split
	panel screen
}

func newChatShell(dep RuntimeDependencies, nav navigator) *chatShell {
	pane := newNavPane(dep, nav)
	right := container.NewStack()
	split := container.NewHSplit(pane.Object(), right)
	split.Offset = navPaneOffset
	pane.Reload()

	return &chatShell{nav: pane, right: right, split: split}
}

func (s *chatShell) Object() fyne.CanvasObject {
	return s.split
}

func (s *chatShell) show(route Route, panel screen) {
	s.panel = panel
	s.right.Objects = []fyne.CanvasObject{panel.Object()}
	s.right.Refresh()
	s.nav.setActive(route)
	if r, ok := panel.(reloadable); ok {
		r.Reload()
	}
}

func (s *chatShell) Reload() {
	s.nav.Reload()
	if r, ok := s.panel.(reloadable); ok {
		r.Reload()
	}
}

func (s *chatShell) OnQueryUpdated(key query.Key) {
	s.nav.OnQueryUpdated(key)
	if q, ok := s.panel.(queryAware); ok {
		q.OnQueryUpdated(key)
	}
}

func (s *chatShell) OnServerStatus(status ponyapp.ServerStatus) {
	s.nav.OnServerStatus(status)
}

type navPane struct {
	dep RuntimeDependencies
	nav navigator

	object   fyne.CanvasObject
	list     *widget.List
	chats    []domain.Chat
	activeID string
	errLabel *widget.Label
	status   *widget.Label

	reloadSeq int
	syncing   bool
}

func newNavPane(dep RuntimeDependencies, nav navigator) *navPane {
	p := &navPane{
		dep:      dep,
		nav:      nav,
		errLabel: newErrorLabel(),
		status:   widget.NewLabel(formatServerStatus(ponyapp.ServerStatus{}, false)),
	}
	if dep.Data.CurrentServerStatus != nil {
		p.status.SetText(formatServerStatus(dep.Data.CurrentServerStatus()))
	}
	p.status.Importance = widget.LowImportance

	p.list = widget.NewList(
		func() int { return len(p.chats) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("chat")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(p.chats) {
				return
			}
			obj.(*widget.Label).SetText(p.chats[id].Name)
		},
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		if p.syncing || id < 0 || id >= len(p.chats) {
			return
		}
		chatID := strconv.FormatInt(p.chats[id].ID, 10)
		if dep.Actions.OnChatSelected != nil {
			dep.Actions.OnChatSelected(chatID)
		}
		nav.Navigate(chatRoute(chatID))
	}

	settingsButton := widget.NewButton("Settings", func() {
		nav.Navigate(Route{Name: RouteSettings})
	})
	logoutButton := widget.NewButton("Logout", p.logout)

	top := container.NewVBox(
		newHeading("Pony Express"),
		newSectionLabel("Account"),
		settingsButton,
		logoutButton,
		newSectionLabel("Chats"),
		p.errLabel,
	)
	bottom := container.NewHBox(layout.NewSpacer(), p.status)
	p.object = container.NewBorder(top, bottom, nil, nil, p.list)

	return p
}

func (p *navPane) Object() fyne.CanvasObject {
	return p.object
}

func (p *navPane) Reload() {
	client := p.dep.Data.Client
	if client == nil {
		return
	}
	p.reloadSeq++
	seq := p.reloadSeq
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		chats, err := client.Chats(context.Background())
		hooks.RunOnUI(func() {
			if seq != p.reloadSeq {
				return
			}
			if err != nil {
				appLogger.Warn("load chats", "error", err)
				setErrorText(p.errLabel, query.ErrorText(err))
				return
			}
			setErrorText(p.errLabel, "")
			p.chats = chats
			p.list.Refresh()
			p.syncSelection()
		})
	})
}

func (p *navPane) OnQueryUpdated(key query.Key) {
	if key.Kind == query.KindChats && shouldReload(p.dep.Data.Client, key) {
		p.Reload()
	}
}

func (p *navPane) OnServerStatus(status ponyapp.ServerStatus) {
	p.status.SetText(formatServerStatus(status, true))
}

func (p *navPane) setActive(route Route) {
	p.activeID = ""
	if route.Name == RouteChat {
		p.activeID = route.ChatID
	}
	p.syncSelection()
}

// syncSelection highlights the open chat without navigating again.
func (p *navPane) syncSelection() {
	p.syncing = true
	defer func() { p.syncing = false }()

	for i, chat := range p.chats {
		if strconv.FormatInt(chat.ID, 10) == p.activeID {
			p.list.Select(i)
			return
		}
	}
	p.list.UnselectAll()
}

func (p *navPane) logout() {
	client := p.dep.Data.Client
	if client == nil {
		return
	}
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		client.Logout(context.Background())
		hooks.RunOnUI(p.nav.Refresh)
	})
}

func formatServerStatus(status ponyapp.ServerStatus, known bool) string {
	if !known || status.State == "" {
		return "Server: checking..."
	}

	return "Server: " + string(status.State)
}
