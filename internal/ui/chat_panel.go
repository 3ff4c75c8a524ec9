package ui

import (
	"context"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/ponyexpress/internal/query"
)

const messageTimeLayout = "2006-01-02 15:04"

type chatPanel struct {
	dep    RuntimeDependencies
	chatID string
	loc    *time.Location

	object   fyne.CanvasObject
	title    *widget.Label
	messages *fyne.Container
	scroll   *container.Scroll
	errLabel *widget.Label
	composer *fyne.Container
	entry    *widget.Entry
	send     *widget.Button

	view      query.ChatView
	sending   bool
	reloadSeq int
}

func newChatPanel(dep RuntimeDependencies, chatID string) *chatPanel {
	p := &chatPanel{
		dep:      dep,
		chatID:   chatID,
		loc:      time.Local,
		title:    newHeading("Loading chat..."),
		messages: container.NewVBox(),
		errLabel: newErrorLabel(),
		entry:    widget.NewEntry(),
	}
	p.scroll = container.NewVScroll(p.messages)
	p.entry.SetPlaceHolder("New message")
	p.entry.OnChanged = func(string) { p.updateSend() }
	p.entry.OnSubmitted = func(string) { p.Send() }
	p.send = widget.NewButton("Send", p.Send)
	p.send.Importance = widget.HighImportance
	p.updateSend()

	p.composer = container.NewBorder(nil, nil, nil, p.send, p.entry)
	p.composer.Hide()

	p.object = container.NewBorder(
		p.title,
		container.NewVBox(p.errLabel, p.composer),
		nil,
		nil,
		p.scroll,
	)

	return p
}

func (p *chatPanel) Object() fyne.CanvasObject {
	return p.object
}

func (p *chatPanel) Reload() {
	client := p.dep.Data.Client
	if client == nil {
		return
	}
	p.reloadSeq++
	seq := p.reloadSeq
	chatID := p.chatID
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		view, err := client.ChatView(context.Background(), chatID)
		hooks.RunOnUI(func() {
			if seq != p.reloadSeq {
				return
			}
			p.apply(view, err)
		})
	})
}

func (p *chatPanel) apply(view query.ChatView, err error) {
	if err != nil {
		appLogger.Warn("load chat", "chat_id", p.chatID, "error", err)
		setErrorText(p.errLabel, query.ErrorText(err))
		return
	}
	setErrorText(p.errLabel, "")

	p.view = view
	p.title.SetText(view.Chat.Name)
	p.renderMessages()
	if view.CanCompose {
		p.composer.Show()
	} else {
		p.composer.Hide()
	}
}

func (p *chatPanel) renderMessages() {
	objects := make([]fyne.CanvasObject, 0, len(p.view.Messages))
	for _, msg := range p.view.Messages {
		objects = append(objects, newMessageRow(msg, p.loc))
	}
	if len(objects) == 0 {
		empty := widget.NewLabel("No messages yet")
		empty.Importance = widget.LowImportance
		objects = append(objects, empty)
	}
	p.messages.Objects = objects
	p.messages.Refresh()
	p.scroll.ScrollToBottom()
}

func (p *chatPanel) OnQueryUpdated(key query.Key) {
	if chatKeyRelevant(p.chatID, key) && shouldReload(p.dep.Data.Client, key) {
		p.Reload()
	}
}

func (p *chatPanel) updateSend() {
	ready := strings.TrimSpace(p.entry.Text) != "" && !p.sending
	setEnabled(ready, p.send)
}

func (p *chatPanel) setSending(sending bool) {
	p.sending = sending
	setEnabled(!sending, p.entry)
	p.updateSend()
}

// Send posts the composed text. The entry keeps its text when sending fails.
func (p *chatPanel) Send() {
	text := strings.TrimSpace(p.entry.Text)
	if text == "" || p.sending || !p.view.CanCompose {
		return
	}
	p.setSending(true)
	setErrorText(p.errLabel, "")

	client := p.dep.Data.Client
	chatID := p.chatID
	hooks := p.dep.UIHooks
	hooks.RunAsync(func() {
		_, err := client.SendMessage(context.Background(), chatID, text)
		hooks.RunOnUI(func() {
			p.setSending(false)
			if err != nil {
				appLogger.Warn("send message", "chat_id", chatID, "error", err)
				setErrorText(p.errLabel, query.ErrorText(err))
				return
			}
			p.entry.SetText("")
			p.Reload()
		})
	})
}

func newMessageRow(msg query.MessageView, loc *time.Location) fyne.CanvasObject {
	author := widget.NewLabelWithStyle(msg.Author, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	at := widget.NewLabel(formatMessageTime(msg.CreatedAt, loc))
	at.Importance = widget.LowImportance
	text := widget.NewLabel(msg.Text)
	text.Wrapping = fyne.TextWrapWord

	return container.NewVBox(
		container.NewHBox(author, layout.NewSpacer(), at),
		text,
		widget.NewSeparator(),
	)
}

func formatMessageTime(at time.Time, loc *time.Location) string {
	if at.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}

	return at.In(loc).Format(messageTimeLayout)
}

// chatKeyRelevant reports whether a cache update can change what the chat
// screen shows.
func chatKeyRelevant(chatID string, key query.Key) bool {
	switch key.Kind {
	case query.KindChat, query.KindMessages, query.KindMembers:
		return key.ID == chatID
	case query.KindAccount, query.KindCurrentAccount:
		return true
	default:
		return false
	}
}
