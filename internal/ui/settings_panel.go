package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/ponyexpress/internal/config"
	"github.com/skobkin/ponyexpress/internal/query"
)

var logLevelOptions = []string{"debug", "info", "warn", "error"}

type settingsPanel struct {
	dep RuntimeDependencies
	nav navigator

	object fyne.CanvasObject

	username      *widget.Entry
	email         *widget.Entry
	accountErr    *widget.Label
	accountButton *widget.Button
	accountBusy   bool
	accountFilled bool

	oldPassword    *widget.Entry
	newPassword    *widget.Entry
	confirmNew     *widget.Entry
	passwordErr    *widget.Label
	passwordInfo   *widget.Label
	passwordButton *widget.Button
	passwordBusy   bool

	deleteErr *widget.Label

	apiURL        *widget.Entry
	logLevel      *widget.Select
	notifyFocused *widget.Check
	notifySession *widget.Check
	notifyServer  *widget.Check
	autostart     *widget.Check
	autostartTray *widget.Check
	prefsErr      *widget.Label
	prefsInfo     *widget.Label
}

func newSettingsPanel(dep RuntimeDependencies, nav navigator) *settingsPanel {
	p := &settingsPanel{
		dep:          dep,
		nav:          nav,
		username:     widget.NewEntry(),
		email:        widget.NewEntry(),
		accountErr:   newErrorLabel(),
		oldPassword:  widget.NewPasswordEntry(),
		newPassword:  widget.NewPasswordEntry(),
		confirmNew:   widget.NewPasswordEntry(),
		passwordErr:  newErrorLabel(),
		passwordInfo: widget.NewLabel(""),
		deleteErr:    newErrorLabel(),
		apiURL:       widget.NewEntry(),
		prefsErr:     newErrorLabel(),
		prefsInfo:    widget.NewLabel(""),
	}

	p.username.SetPlaceHolder("username")
	p.email.SetPlaceHolder("email")
	p.username.OnChanged = func(string) { p.updateAccountButton() }
	p.email.OnChanged = func(string) { p.updateAccountButton() }
	p.accountButton = widget.NewButton("update", p.submitAccount)
	p.updateAccountButton()

	p.oldPassword.SetPlaceHolder("old password")
	p.newPassword.SetPlaceHolder("new password")
	p.confirmNew.SetPlaceHolder("confirm new password")
	for _, entry := range []*widget.Entry{p.oldPassword, p.newPassword, p.confirmNew} {
		entry.OnChanged = func(string) { p.validatePassword() }
	}
	p.passwordButton = widget.NewButton("update password", p.submitPassword)
	p.validatePassword()

	logoutButton := widget.NewButton("Logout", p.logout)
	deleteButton := widget.NewButton("Delete", p.confirmDelete)
	deleteButton.Importance = widget.DangerImportance

	p.buildPreferences()

	content := container.NewVBox(
		newHeading("Settings"),
		newSectionLabel("Update your account"),
		p.username,
		p.email,
		p.accountErr,
		p.accountButton,
		widget.NewSeparator(),
		newSectionLabel("Update your password"),
		p.oldPassword,
		p.newPassword,
		p.confirmNew,
		p.passwordErr,
		p.passwordInfo,
		p.passwordButton,
		widget.NewSeparator(),
		newSectionLabel("Manage account"),
		container.NewGridWithColumns(2, logoutButton, deleteButton),
		p.deleteErr,
		widget.NewSeparator(),
		newSectionLabel("Application"),
		widget.NewLabel("Server address (applies after restart)"),
		p.apiURL,
		widget.NewLabel("Log level"),
		p.logLevel,
		p.notifyFocused,
		p.notifySession,
		p.notifyServer,
		p.autostart,
		p.autostartTray,
		p.prefsErr,
		p.prefsInfo,
		widget.NewButton("save preferences", p.savePreferences),
	)
	p.object = container.NewVScroll(container.NewPadded(content))

	return p
}

func (p *settingsPanel) Object() fyne.CanvasObject {
	return p.object
}

func (p *settingsPanel) currentConfig() config.AppConfig {
	if p.dep.Data.CurrentConfig != nil {
		return p.dep.Data.CurrentConfig()
	}

	return p.dep.Data.Config
}

func (p *settingsPanel) buildPreferences() {
	cfg := p.currentConfig()

	p.apiURL.SetPlaceHolder(config.DefaultAPIBaseURL)
	p.apiURL.SetText(cfg.API.BaseURL)
	p.logLevel = widget.NewSelect(logLevelOptions, nil)
	p.logLevel.SetSelected(normalizeLogLevel(cfg.Logging.Level))
	p.notifyFocused = widget.NewCheck("Notify while the window is focused", nil)
	p.notifyFocused.SetChecked(cfg.UI.Notifications.NotifyWhenFocused)
	p.notifySession = widget.NewCheck("Notify about session changes", nil)
	p.notifySession.SetChecked(cfg.UI.Notifications.Events.SessionChanged)
	p.notifyServer = widget.NewCheck("Notify when the server goes up or down", nil)
	p.notifyServer.SetChecked(cfg.UI.Notifications.Events.ServerStatus)
	p.autostartTray = widget.NewCheck("Start hidden in the tray", nil)
	p.autostartTray.SetChecked(cfg.UI.Autostart.Mode == config.AutostartModeTray)
	p.autostart = widget.NewCheck("Start on login", func(enabled bool) {
		setEnabled(enabled, p.autostartTray)
	})
	p.autostart.SetChecked(cfg.UI.Autostart.Enabled)
	setEnabled(cfg.UI.Autostart.Enabled, p.autostartTray)
}

func normalizeLogLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	for _, option := range logLevelOptions {
		if option == level {
			return level
		}
	}

	return "info"
}

// Reload fills the account form once the current account is known. Edits in
// progress are kept.
func (p *settingsPanel) Reload() {
	client := p.dep.Data.Client
	if client == nil {
		return
	}
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		account, ok, err := client.CurrentAccount(context.Background())
		hooks.RunOnUI(func() {
			if err != nil {
				setErrorText(p.accountErr, "Failed to fetch user info: "+query.ErrorText(err))
				return
			}
			if !ok || p.accountFilled {
				return
			}
			p.accountFilled = true
			p.username.SetText(account.Username)
			p.email.SetText(account.Email)
		})
	})
}

func (p *settingsPanel) OnQueryUpdated(key query.Key) {
	if key.Kind == query.KindCurrentAccount && shouldReload(p.dep.Data.Client, key) {
		p.Reload()
	}
}

func (p *settingsPanel) updateAccountButton() {
	ready := strings.TrimSpace(p.username.Text) != "" && strings.TrimSpace(p.email.Text) != "" && !p.accountBusy
	setEnabled(ready, p.accountButton)
}

func (p *settingsPanel) submitAccount() {
	if p.accountBusy {
		return
	}
	username := strings.TrimSpace(p.username.Text)
	email := strings.TrimSpace(p.email.Text)
	p.accountBusy = true
	p.updateAccountButton()
	setErrorText(p.accountErr, "")

	client := p.dep.Data.Client
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		_, err := client.UpdateAccount(context.Background(), username, email)
		hooks.RunOnUI(func() {
			p.accountBusy = false
			p.updateAccountButton()
			if err != nil {
				setErrorText(p.accountErr, query.ErrorText(err))
			}
		})
	})
}

func (p *settingsPanel) validatePassword() {
	if passwordsMismatch(p.newPassword.Text, p.confirmNew.Text) {
		setErrorText(p.passwordErr, query.ErrPasswordMismatch.Error())
	} else if p.passwordErr.Text == query.ErrPasswordMismatch.Error() {
		setErrorText(p.passwordErr, "")
	}

	ready := p.oldPassword.Text != "" &&
		p.newPassword.Text != "" &&
		p.confirmNew.Text != "" &&
		query.ConfirmPassword(p.newPassword.Text, p.confirmNew.Text) == nil &&
		!p.passwordBusy
	setEnabled(ready, p.passwordButton)
}

func (p *settingsPanel) submitPassword() {
	if p.passwordBusy {
		return
	}
	oldPassword := p.oldPassword.Text
	newPassword := p.newPassword.Text
	p.passwordBusy = true
	p.validatePassword()
	setErrorText(p.passwordErr, "")
	p.passwordInfo.SetText("")

	client := p.dep.Data.Client
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		err := client.ChangePassword(context.Background(), oldPassword, newPassword)
		hooks.RunOnUI(func() {
			p.passwordBusy = false
			if err != nil {
				p.validatePassword()
				setErrorText(p.passwordErr, query.ErrorText(err))
				return
			}
			p.oldPassword.SetText("")
			p.newPassword.SetText("")
			p.confirmNew.SetText("")
			p.passwordInfo.SetText("Password updated")
		})
	})
}

func (p *settingsPanel) logout() {
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

func (p *settingsPanel) confirmDelete() {
	hooks := p.dep.UIHooks
	hooks.ShowConfirmDialog(
		"Delete account",
		"Your account will be removed from the server. Continue?",
		p.deleteAccount,
		hooks.CurrentWindow(),
	)
}

func (p *settingsPanel) deleteAccount() {
	setErrorText(p.deleteErr, "")
	client := p.dep.Data.Client
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		err := client.DeleteAccount(context.Background())
		hooks.RunOnUI(func() {
			if err != nil {
				setErrorText(p.deleteErr, query.ErrorText(err))
				return
			}
			p.nav.Refresh()
		})
	})
}

func (p *settingsPanel) savePreferences() {
	setErrorText(p.prefsErr, "")
	p.prefsInfo.SetText("")
	if p.dep.Actions.OnSave == nil {
		return
	}

	cfg := p.currentConfig()
	cfg.API.BaseURL = strings.TrimSpace(p.apiURL.Text)
	cfg.Logging.Level = p.logLevel.Selected
	cfg.UI.Notifications.NotifyWhenFocused = p.notifyFocused.Checked
	cfg.UI.Notifications.Events.SessionChanged = p.notifySession.Checked
	cfg.UI.Notifications.Events.ServerStatus = p.notifyServer.Checked
	cfg.UI.Autostart.Enabled = p.autostart.Checked
	cfg.UI.Autostart.Mode = config.AutostartModeNormal
	if p.autostartTray.Checked {
		cfg.UI.Autostart.Mode = config.AutostartModeTray
	}

	if err := p.dep.Actions.OnSave(cfg); err != nil {
		appLogger.Warn("save preferences", "error", err)
		setErrorText(p.prefsErr, err.Error())
		return
	}
	p.prefsInfo.SetText("Preferences saved")
}
