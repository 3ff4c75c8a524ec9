package ui

import (
	ponyapp "github.com/skobkin/ponyexpress/internal/app"
)

func BuildRuntimeDependencies(rt *ponyapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
	}

	if rt == nil {
		return dep
	}

	cfg := rt.CurrentConfig()
	dep.Data = DataDependencies{
		Config:           cfg,
		CurrentConfig:    rt.CurrentConfig,
		LastSelectedChat: cfg.UI.LastSelectedChat,
	}
	if rt.Bus != nil {
		dep.Data.Bus = rt.Bus
	}
	if rt.Session != nil {
		dep.Data.Session = rt.Session
	}
	if rt.Query != nil {
		dep.Data.Client = rt.Query
	}
	if rt.Status != nil {
		dep.Data.CurrentServerStatus = rt.Status.CurrentStatus
	}

	dep.Actions.OnSave = rt.SaveAndApplyConfig
	dep.Actions.OnChatSelected = rt.RememberSelectedChat

	return dep
}
