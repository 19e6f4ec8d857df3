// Package tui provides the interactive terminal chat UI for Skua.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"

	"github.com/skua-dev/skua/pkg/apis/v1alpha1"
	"github.com/skua-dev/skua/pkg/client"
)

// App is the chat TUI. A thread list sits on the left, the transcript of
// the selected thread fills the main pane, and an input field at the
// bottom sends messages through the REST API.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	threadList *tview.List
	transcript *tview.TextView
	input      *tview.InputField
	statusBar  *tview.TextView
	mainFlex   *tview.Flex

	client     *client.Client
	serverAddr string
	agent      string

	// Cached data from the last successful refresh.
	threads []*v1alpha1.Thread
	current string // name of the selected thread
	waiting bool   // a turn is in flight

	mu sync.Mutex
}

// NewApp creates the TUI connected to the given Skua API server.
func NewApp(serverAddr, project, agent string) *App {
	a := &App{
		app:        tview.NewApplication(),
		client:     client.New(serverAddr, project),
		serverAddr: serverAddr,
		agent:      agent,
	}

	a.threadList = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	a.threadList.SetBorder(true).
		SetTitle(" Threads ").
		SetBorderColor(tcell.ColorDodgerBlue)
	a.threadList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.selectThreadAt(index)
	})

	a.transcript = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true).
		SetWordWrap(true)
	a.transcript.SetBorder(true).
		SetTitle(" Conversation ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.input = tview.NewInputField().
		SetLabel(" > ").
		SetLabelColor(tcell.ColorGreen).
		SetFieldBackgroundColor(tcell.ColorBlack)
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.input.GetText())
		if text == "" {
			return
		}
		a.input.SetText("")
		a.sendMessage(text)
	})

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.statusBar.SetBackgroundColor(tcell.ColorDarkBlue)

	chatFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.transcript, 0, 1, false).
		AddItem(a.input, 1, 0, true)

	contentFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.threadList, 28, 0, false).
		AddItem(chatFlex, 0, 1, true)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(contentFlex, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", a.mainFlex, true, true)

	a.updateStatus("")
	a.setupKeyBindings()

	a.app.SetRoot(a.pages, true).SetFocus(a.input)

	return a
}

// Run loads the thread list and runs the TUI event loop.
func (a *App) Run() error {
	a.refreshThreads()

	// Background poller picks up topics generated by the server.
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			a.refreshThreads()
			a.app.QueueUpdateDraw(func() {
				a.updateThreadList()
			})
		}
	}()

	a.updateThreadList()
	a.renderTranscript()
	return a.app.Run()
}

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlN:
			a.newThread()
			return nil
		case tcell.KeyCtrlD:
			a.confirmDelete()
			return nil
		case tcell.KeyTab:
			if a.app.GetFocus() == a.input {
				a.app.SetFocus(a.threadList)
			} else {
				a.app.SetFocus(a.input)
			}
			return nil
		case tcell.KeyCtrlC, tcell.KeyEscape:
			a.app.Stop()
			return nil
		}
		return event
	})
}

// ---------------------------------------------------------------------------
// Threads
// ---------------------------------------------------------------------------

func (a *App) refreshThreads() {
	threads, err := a.client.ListThreads()
	if err != nil {
		a.setStatusError(fmt.Sprintf("listing threads: %v", err))
		return
	}

	a.mu.Lock()
	a.threads = threads
	// Keep the selection valid after a delete elsewhere.
	if a.current != "" {
		found := false
		for _, t := range threads {
			if t.Metadata.Name == a.current {
				found = true
				break
			}
		}
		if !found {
			a.current = ""
		}
	}
	if a.current == "" && len(threads) > 0 {
		a.current = threads[0].Metadata.Name
	}
	a.mu.Unlock()
}

func (a *App) updateThreadList() {
	a.mu.Lock()
	threads := a.threads
	current := a.current
	a.mu.Unlock()

	a.threadList.Clear()
	selected := 0
	for i, t := range threads {
		topic := t.Status.Topic
		if topic == "" {
			topic = t.Metadata.Name
		}
		a.threadList.AddItem(topic, t.Metadata.Name, 0, nil)
		if t.Metadata.Name == current {
			selected = i
		}
	}
	if len(threads) > 0 {
		a.threadList.SetCurrentItem(selected)
	}
}

func (a *App) selectThreadAt(index int) {
	a.mu.Lock()
	if index < 0 || index >= len(a.threads) {
		a.mu.Unlock()
		return
	}
	a.current = a.threads[index].Metadata.Name
	a.mu.Unlock()

	a.renderTranscript()
}

func (a *App) newThread() {
	thread := &v1alpha1.Thread{
		Metadata: v1alpha1.ObjectMeta{
			Name: "chat-" + uuid.NewString()[:8],
		},
		Spec: v1alpha1.ThreadSpec{Agent: a.agent},
	}
	created, err := a.client.CreateThread(thread)
	if err != nil {
		a.setStatusError(fmt.Sprintf("creating thread: %v", err))
		return
	}

	a.mu.Lock()
	a.current = created.Metadata.Name
	a.mu.Unlock()

	a.refreshThreads()
	a.updateThreadList()
	a.renderTranscript()
	a.app.SetFocus(a.input)
}

func (a *App) confirmDelete() {
	a.mu.Lock()
	name := a.current
	a.mu.Unlock()
	if name == "" {
		return
	}

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete thread %q?", name)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			if buttonLabel == "Delete" {
				if err := a.client.DeleteThread(name); err != nil {
					a.setStatusError(fmt.Sprintf("deleting thread: %v", err))
				} else {
					a.mu.Lock()
					a.current = ""
					a.mu.Unlock()
					a.refreshThreads()
					a.updateThreadList()
					a.renderTranscript()
				}
			}
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.input)
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("confirm", modal, true, true)
}

// ---------------------------------------------------------------------------
// Transcript
// ---------------------------------------------------------------------------

func (a *App) renderTranscript() {
	a.mu.Lock()
	name := a.current
	a.mu.Unlock()

	a.transcript.Clear()
	if name == "" {
		fmt.Fprint(a.transcript, "[gray]No thread selected. Press Ctrl+N to start one.[-]")
		return
	}

	thread, err := a.client.GetThread(name)
	if err != nil {
		fmt.Fprintf(a.transcript, "[red]Error: %v[-]", err)
		return
	}

	a.transcript.SetTitle(fmt.Sprintf(" %s ", threadTitle(thread)))
	var b strings.Builder
	for _, msg := range thread.Status.Messages {
		writeMessage(&b, msg)
	}
	fmt.Fprint(a.transcript, b.String())
	a.transcript.ScrollToEnd()
}

func writeMessage(b *strings.Builder, msg v1alpha1.ThreadMessage) {
	switch msg.Role {
	case v1alpha1.RoleUser:
		b.WriteString("[green::b]you[-::-]")
	case v1alpha1.RoleAssistant:
		b.WriteString("[aqua::b]assistant[-::-]")
	default:
		fmt.Fprintf(b, "[gray]%s[-]", msg.Role)
	}
	if !msg.Timestamp.IsZero() {
		fmt.Fprintf(b, " [gray]%s[-]", msg.Timestamp.Format("15:04"))
	}
	b.WriteString("\n")
	b.WriteString(tview.Escape(msg.Content))
	b.WriteString("\n\n")
}

func threadTitle(t *v1alpha1.Thread) string {
	if t.Status.Topic != "" && t.Status.Topic != v1alpha1.DefaultTopic {
		return t.Status.Topic
	}
	return t.Metadata.Name
}

// ---------------------------------------------------------------------------
// Sending
// ---------------------------------------------------------------------------

func (a *App) sendMessage(text string) {
	a.mu.Lock()
	if a.waiting {
		a.mu.Unlock()
		a.setStatusError("still waiting for the previous reply")
		return
	}
	name := a.current
	a.mu.Unlock()

	if name == "" {
		a.newThread()
		a.mu.Lock()
		name = a.current
		a.mu.Unlock()
		if name == "" {
			return
		}
	}

	a.mu.Lock()
	a.waiting = true
	a.mu.Unlock()

	// Echo the user message immediately; the server round trip replaces
	// the transcript with the authoritative copy.
	fmt.Fprintf(a.transcript, "[green::b]you[-::-]\n%s\n\n", tview.Escape(text))
	a.transcript.ScrollToEnd()
	a.updateStatus("[yellow]thinking…[-]")

	go func() {
		_, err := a.client.SendMessage(name, text)

		a.mu.Lock()
		a.waiting = false
		a.mu.Unlock()

		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.setStatusError(fmt.Sprintf("send failed: %v", err))
			} else {
				a.updateStatus("")
			}
			a.renderTranscript()
		})
	}()
}

// ---------------------------------------------------------------------------
// Status bar
// ---------------------------------------------------------------------------

func (a *App) updateStatus(note string) {
	base := " [yellow]<ctrl-n>[white]New  [yellow]<ctrl-d>[white]Delete  [yellow]<tab>[white]Switch pane  [yellow]<esc>[white]Quit"
	if note != "" {
		base += "  |  " + note
	}
	a.statusBar.SetText(base)
}

func (a *App) setStatusError(msg string) {
	a.statusBar.SetText(fmt.Sprintf(" [red]%s[-]", msg))
	go func() {
		time.Sleep(3 * time.Second)
		a.app.QueueUpdateDraw(func() {
			a.updateStatus("")
		})
	}()
}
