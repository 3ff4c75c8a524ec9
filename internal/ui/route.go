package ui

import (
	"strconv"
	"strings"

	"github.com/skobkin/ponyexpress/internal/session"
)

type RouteName string

const (
	RouteLoading  RouteName = "loading"
	RouteHome     RouteName = "home"
	RouteLogin    RouteName = "login"
	RouteRegister RouteName = "register"
	RouteChats    RouteName = "chats"
	RouteChat     RouteName = "chat"
	RouteSettings RouteName = "settings"
	RouteNotFound RouteName = "not_found"
)

type Route struct {
	Name   RouteName
	ChatID string
}

func homeRoute() Route              { return Route{Name: RouteHome} }
func chatRoute(chatID string) Route { return Route{Name: RouteChat, ChatID: chatID} }

func (r Route) Path() string {
	switch r.Name {
	case RouteHome:
		return "/"
	case RouteChat:
		return "/chats/" + r.ChatID
	default:
		return "/" + string(r.Name)
	}
}

// protected routes need a logged in session.
func (r Route) protected() bool {
	switch r.Name {
	case RouteChats, RouteChat, RouteSettings:
		return true
	default:
		return false
	}
}

// guest routes make no sense once logged in.
func (r Route) guest() bool {
	switch r.Name {
	case RouteHome, RouteLogin, RouteRegister:
		return true
	default:
		return false
	}
}

// resolveRoute applies the auth guards. Nothing is redirected until the
// stored session has been read.
func resolveRoute(requested Route, s session.Session) Route {
	if !s.AuthLoaded {
		return Route{Name: RouteLoading}
	}
	if requested.protected() && s.ShouldRedirectHome() {
		return homeRoute()
	}
	if requested.guest() && s.ShouldRedirectToChats() {
		return Route{Name: RouteChats}
	}

	return requested
}

// ParseRoute maps a path to a route. Unknown paths resolve to not found.
func ParseRoute(path string) Route {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return homeRoute()
	}

	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 1 && parts[0] == string(RouteLogin):
		return Route{Name: RouteLogin}
	case len(parts) == 1 && parts[0] == string(RouteRegister):
		return Route{Name: RouteRegister}
	case len(parts) == 1 && parts[0] == string(RouteSettings):
		return Route{Name: RouteSettings}
	case len(parts) == 1 && parts[0] == string(RouteChats):
		return Route{Name: RouteChats}
	case len(parts) == 2 && parts[0] == string(RouteChats) && validChatID(parts[1]):
		return chatRoute(parts[1])
	}

	return Route{Name: RouteNotFound}
}

func validChatID(raw string) bool {
	id, err := strconv.ParseInt(raw, 10, 64)

	return err == nil && id > 0
}
