package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

type screen interface {
	Object() fyne.CanvasObject
}

type reloadable interface {
	Reload()
}

type queryAware interface {
	OnQueryUpdated(key query.Key)
}

type serverStatusAware interface {
	OnServerStatus(status ponyapp.ServerStatus)
}

// navigator is what screens use to move around.
type navigator interface {
	Navigate(route Route)
	// Refresh re-applies the guards after the session changed.
	Refresh()
}

// router owns the window content. All methods run on the UI thread.
type router struct {
	dep            RuntimeDependencies
	content        *fyne.Container
	onRouteChanged func(Route)

	requested Route
	current   Route
	active    screen
	shell     *chatShell
	rendered  bool
}

func newRouter(dep RuntimeDependencies, initial Route, onRouteChanged func(Route)) *router {
	dep.UIHooks = withDefaultHooks(dep.UIHooks)

	return &router{
		dep:            dep,
		content:        container.NewStack(),
		onRouteChanged: onRouteChanged,
		requested:      initial,
	}
}

func (r *router) Object() fyne.CanvasObject {
	return r.content
}

func (r *router) Current() Route {
	return r.current
}

func (r *router) Navigate(route Route) {
	appLogger.Debug("navigate", "path", route.Path())
	r.requested = route
	r.render()
}

func (r *router) Refresh() {
	r.render()
}

func (r *router) session() session.Session {
	if r.dep.Data.Session == nil {
		return session.Session{AuthLoaded: true}
	}

	return r.dep.Data.Session.Snapshot()
}

// render builds the screen for the resolved route. It reports whether the
// visible route changed.
func (r *router) render() bool {
	resolved := resolveRoute(r.requested, r.session())
	if r.rendered && resolved == r.current {
		return false
	}
	if resolved != r.requested && resolved.Name != RouteLoading {
		appLogger.Debug("route redirected", "requested", r.requested.Path(), "resolved", resolved.Path())
	}

	r.current = resolved
	r.rendered = true
	r.active = r.build(resolved)
	r.content.Objects = []fyne.CanvasObject{r.active.Object()}
	r.content.Refresh()
	if r.onRouteChanged != nil {
		r.onRouteChanged(resolved)
	}

	return true
}

func (r *router) build(route Route) screen {
	switch route.Name {
	case RouteLoading:
		r.shell = nil
		return newLoadingScreen()
	case RouteHome, RouteLogin:
		r.shell = nil
		return newLoginScreen(r.dep, r, route.Name == RouteHome)
	case RouteRegister:
		r.shell = nil
		return newRegisterScreen(r.dep, r)
	case RouteChats:
		return r.shellWith(route, newPlaceholderPanel("Select a chat"))
	case RouteChat:
		return r.shellWith(route, newChatPanel(r.dep, route.ChatID))
	case RouteSettings:
		return r.shellWith(route, newSettingsPanel(r.dep, r))
	default:
		r.shell = nil
		return newNotFoundScreen(r)
	}
}

// Protected routes share one navigation pane so switching chats keeps it.
func (r *router) shellWith(route Route, panel screen) screen {
	if r.shell == nil {
		r.shell = newChatShell(r.dep, r)
	}
	r.shell.show(route, panel)

	return r.shell
}

// HandleSessionEvent re-applies guards; when the route stays the same the
// screen reloads since the account behind it may have changed.
func (r *router) HandleSessionEvent(event session.Event) {
	if r.render() {
		return
	}
	if event.Source == session.SourceInit {
		return
	}
	if screen, ok := r.active.(reloadable); ok {
		screen.Reload()
	}
}

func (r *router) HandleQueryUpdate(key query.Key) {
	if screen, ok := r.active.(queryAware); ok {
		screen.OnQueryUpdated(key)
	}
}

func (r *router) HandleServerStatus(status ponyapp.ServerStatus) {
	if screen, ok := r.active.(serverStatusAware); ok {
		screen.OnServerStatus(status)
	}
}

// shouldReload skips keys whose last fetch failed, otherwise a failing
// request would be retried on every update it publishes.
func shouldReload(client ChatClient, key query.Key) bool {
	if client == nil || client.Cache() == nil {
		return false
	}
	entry, ok := client.Cache().Peek(key)

	return !ok || entry.Err == nil
}
