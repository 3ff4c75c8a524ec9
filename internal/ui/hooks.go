package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

func withDefaultHooks(hooks UIHooks) UIHooks {
	if hooks.RunOnUI == nil {
		hooks.RunOnUI = fyne.Do
	}
	if hooks.RunAsync == nil {
		hooks.RunAsync = func(fn func()) { go fn() }
	}
	if hooks.ShowErrorDialog == nil {
		hooks.ShowErrorDialog = func(err error, window fyne.Window) {
			if window == nil {
				return
			}
			dialog.ShowError(err, window)
		}
	}
	if hooks.ShowConfirmDialog == nil {
		hooks.ShowConfirmDialog = func(title, message string, onConfirm func(), window fyne.Window) {
			if window == nil {
				return
			}
			dialog.ShowConfirm(title, message, func(ok bool) {
				if ok {
					onConfirm()
				}
			}, window)
		}
	}
	if hooks.CurrentWindow == nil {
		hooks.CurrentWindow = func() fyne.Window { return nil }
	}

	return hooks
}
