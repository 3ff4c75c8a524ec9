package ui

import (
	"testing"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/config"
)

func TestBuildRuntimeDependencies_MapsRuntimeAndLaunch(t *testing.T) {
	cfg := config.Default()
	cfg.UI.LastSelectedChat = "12"

	rt := &ponyapp.Runtime{Config: cfg}

	quitCalled := false
	dep := BuildRuntimeDependencies(rt, LaunchOptions{StartHidden: true, InitialRoute: "/settings"}, func() {
		quitCalled = true
	})

	if dep.Data.Config.UI.LastSelectedChat != "12" {
		t.Fatalf("expected config to be mapped")
	}
	if dep.Data.LastSelectedChat != "12" {
		t.Fatalf("expected data last selected chat to be mapped")
	}
	if dep.Data.CurrentConfig == nil || dep.Data.CurrentConfig().UI.LastSelectedChat != "12" {
		t.Fatalf("expected current config provider to be mapped")
	}
	if dep.Data.Session != nil {
		t.Fatalf("expected session to stay nil without a session store")
	}
	if dep.Data.Client != nil {
		t.Fatalf("expected client to stay nil without a query client")
	}
	if dep.Data.CurrentServerStatus != nil {
		t.Fatalf("expected status provider to stay nil without a monitor")
	}
	if dep.Actions.OnSave == nil {
		t.Fatalf("expected save action to be mapped")
	}
	if dep.Actions.OnChatSelected == nil {
		t.Fatalf("expected chat selected action to be mapped")
	}
	if !dep.Launch.StartHidden || dep.Launch.InitialRoute != "/settings" {
		t.Fatalf("expected launch options to be mapped, got %+v", dep.Launch)
	}

	dep.Actions.OnQuit()
	if !quitCalled {
		t.Fatalf("expected quit callback to be invoked")
	}
}

func TestBuildRuntimeDependencies_NilRuntimeStillMapsLaunchAndQuit(t *testing.T) {
	quitCalled := false
	dep := BuildRuntimeDependencies(nil, LaunchOptions{StartHidden: true}, func() {
		quitCalled = true
	})

	if !dep.Launch.StartHidden {
		t.Fatalf("expected launch options to be preserved")
	}
	if dep.Actions.OnSave != nil {
		t.Fatalf("expected save action to stay nil for nil runtime")
	}
	if dep.Data.Client != nil || dep.Data.Session != nil {
		t.Fatalf("expected data dependencies to stay empty for nil runtime")
	}

	dep.Actions.OnQuit()
	if !quitCalled {
		t.Fatalf("expected quit callback invocation")
	}
}
