package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/ponyexpress/internal/query"
)

const formWidth float32 = 360

type loginScreen struct {
	dep RuntimeDependencies
	nav navigator

	object   fyne.CanvasObject
	username *widget.Entry
	password *widget.Entry
	errLabel *widget.Label
	submit   *widget.Button
	pending  bool
}

func newLoginScreen(dep RuntimeDependencies, nav navigator, home bool) *loginScreen {
	s := &loginScreen{
		dep:      dep,
		nav:      nav,
		username: widget.NewEntry(),
		password: widget.NewPasswordEntry(),
		errLabel: newErrorLabel(),
	}
	s.username.SetPlaceHolder("username")
	s.password.SetPlaceHolder("password")
	s.submit = widget.NewButton("login", s.Submit)
	s.submit.Importance = widget.HighImportance

	s.username.OnChanged = func(string) { s.updateSubmit() }
	s.password.OnChanged = func(string) { s.updateSubmit() }
	s.username.OnSubmitted = func(string) { s.Submit() }
	s.password.OnSubmitted = func(string) { s.Submit() }
	s.updateSubmit()

	registerLink := widget.NewButton("register new account", func() {
		nav.Navigate(Route{Name: RouteRegister})
	})
	registerLink.Importance = widget.LowImportance

	title := "Login"
	if home {
		title = "Pony Express"
	}
	form := container.NewVBox(
		newHeading(title),
		s.username,
		s.password,
		s.errLabel,
		s.submit,
		registerLink,
	)
	s.object = container.NewCenter(withMinWidth(form, formWidth))

	return s
}

func (s *loginScreen) Object() fyne.CanvasObject {
	return s.object
}

func (s *loginScreen) updateSubmit() {
	ready := strings.TrimSpace(s.username.Text) != "" && s.password.Text != "" && !s.pending
	setEnabled(ready, s.submit)
}

func (s *loginScreen) setPending(pending bool) {
	s.pending = pending
	setEnabled(!pending, s.username, s.password)
	s.updateSubmit()
}

// Submit logs in with the entered credentials. The form stays disabled while
// the request is in flight.
func (s *loginScreen) Submit() {
	if s.pending || s.submit.Disabled() {
		return
	}
	username := strings.TrimSpace(s.username.Text)
	password := s.password.Text
	s.setPending(true)
	setErrorText(s.errLabel, "")

	client := s.dep.Data.Client
	hooks := s.dep.UIHooks
	hooks.RunAsync(func() {
		err := client.Login(context.Background(), username, password)
		hooks.RunOnUI(func() {
			s.setPending(false)
			if err != nil {
				appLogger.Info("login failed", "username", username, "error", err)
				setErrorText(s.errLabel, query.ErrorText(err))
				return
			}
			s.password.SetText("")
			s.nav.Refresh()
		})
	})
}

type registerScreen struct {
	dep RuntimeDependencies
	nav navigator

	object   fyne.CanvasObject
	username *widget.Entry
	email    *widget.Entry
	password *widget.Entry
	confirm  *widget.Entry
	errLabel *widget.Label
	submit   *widget.Button
	pending  bool
}

func newRegisterScreen(dep RuntimeDependencies, nav navigator) *registerScreen {
	s := &registerScreen{
		dep:      dep,
		nav:      nav,
		username: widget.NewEntry(),
		email:    widget.NewEntry(),
		password: widget.NewPasswordEntry(),
		confirm:  widget.NewPasswordEntry(),
		errLabel: newErrorLabel(),
	}
	s.username.SetPlaceHolder("username")
	s.email.SetPlaceHolder("email")
	s.password.SetPlaceHolder("password")
	s.confirm.SetPlaceHolder("confirm password")
	s.submit = widget.NewButton("register", s.Submit)
	s.submit.Importance = widget.HighImportance

	for _, entry := range []*widget.Entry{s.username, s.email, s.password, s.confirm} {
		entry.OnChanged = func(string) { s.validate() }
		entry.OnSubmitted = func(string) { s.Submit() }
	}
	s.validate()

	loginLink := widget.NewButton("login to account", func() {
		nav.Navigate(Route{Name: RouteLogin})
	})
	loginLink.Importance = widget.LowImportance

	form := container.NewVBox(
		newHeading("Pony Express"),
		s.username,
		s.email,
		s.password,
		s.confirm,
		s.errLabel,
		s.submit,
		loginLink,
	)
	s.object = container.NewCenter(withMinWidth(form, formWidth))

	return s
}

func (s *registerScreen) Object() fyne.CanvasObject {
	return s.object
}

// validate shows the mismatch inline as soon as both passwords are typed.
func (s *registerScreen) validate() {
	mismatch := passwordsMismatch(s.password.Text, s.confirm.Text)
	if mismatch {
		setErrorText(s.errLabel, query.ErrPasswordMismatch.Error())
	} else if s.errLabel.Text == query.ErrPasswordMismatch.Error() {
		setErrorText(s.errLabel, "")
	}

	ready := strings.TrimSpace(s.username.Text) != "" &&
		strings.TrimSpace(s.email.Text) != "" &&
		s.password.Text != "" &&
		query.ConfirmPassword(s.password.Text, s.confirm.Text) == nil &&
		!s.pending
	setEnabled(ready, s.submit)
}

func (s *registerScreen) setPending(pending bool) {
	s.pending = pending
	setEnabled(!pending, s.username, s.email, s.password, s.confirm)
	s.validate()
}

func (s *registerScreen) Submit() {
	if s.pending || s.submit.Disabled() {
		return
	}
	username := strings.TrimSpace(s.username.Text)
	email := strings.TrimSpace(s.email.Text)
	password := s.password.Text
	s.setPending(true)
	setErrorText(s.errLabel, "")

	client := s.dep.Data.Client
	hooks := s.dep.UIHooks
	hooks.RunAsync(func() {
		_, err := client.Register(context.Background(), username, email, password)
		hooks.RunOnUI(func() {
			s.setPending(false)
			if err != nil {
				appLogger.Info("registration failed", "username", username, "error", err)
				setErrorText(s.errLabel, query.ErrorText(err))
				return
			}
			s.nav.Refresh()
		})
	})
}

// passwordsMismatch is true only once both fields hold something.
func passwordsMismatch(password, confirmation string) bool {
	return password != "" && confirmation != "" && query.ConfirmPassword(password, confirmation) != nil
}
