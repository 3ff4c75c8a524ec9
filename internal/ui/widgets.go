package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type staticScreen struct {
	object fyne.CanvasObject
}

func (s staticScreen) Object() fyne.CanvasObject {
	return s.object
}

func newHeading(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
}

func newSectionLabel(text string) *widget.Label {
	label := widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	label.Importance = widget.LowImportance

	return label
}

// newErrorLabel is hidden until setErrorText gives it something to say.
func newErrorLabel() *widget.Label {
	label := widget.NewLabel("")
	label.Importance = widget.DangerImportance
	label.Wrapping = fyne.TextWrapWord
	label.Hide()

	return label
}

func setErrorText(label *widget.Label, text string) {
	label.SetText(text)
	if text == "" {
		label.Hide()
		return
	}
	label.Show()
}

func setEnabled(enabled bool, widgets ...fyne.Disableable) {
	for _, w := range widgets {
		if enabled {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

func newLoadingScreen() screen {
	return staticScreen{object: container.NewCenter(container.NewVBox(
		newHeading("Pony Express"),
		widget.NewLabel("Loading session..."),
	))}
}

func newNotFoundScreen(nav navigator) screen {
	return staticScreen{object: container.NewCenter(container.NewVBox(
		newHeading("404: Not Found"),
		widget.NewButton("Go home", func() { nav.Navigate(homeRoute()) }),
	))}
}

func newPlaceholderPanel(text string) screen {
	return staticScreen{object: container.NewCenter(widget.NewLabel(text))}
}

// minWidthLayout stretches its objects to at least width.
type minWidthLayout struct {
	width float32
}

func withMinWidth(object fyne.CanvasObject, width float32) *fyne.Container {
	return container.New(minWidthLayout{width: width}, object)
}

func (l minWidthLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, object := range objects {
		object.Move(fyne.NewPos(0, 0))
		object.Resize(size)
	}
}

func (l minWidthLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	size := fyne.NewSize(l.width, 0)
	for _, object := range objects {
		if object.Visible() {
			size = size.Max(object.MinSize())
		}
	}

	return size
}
