package layout

import (
	"fmt"
	"io/ioutil"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"
)

const (
	PastCmdView = "pastcommand"
	InputView   = "input"
	LoggerView  = "logger"
	ManualView  = "manual"
)

type cmd struct {
	str   string
	ready bool
	m     sync.RWMutex
}

var command cmd = cmd{}

// PastCmd is the ViewManager that logs past command.
type PastCmd struct {
	name string
}

// Input box for command. Every entered line is handed to submit.
type Input struct {
	name   string
	submit func(string) error
}

type Logger struct {
	name string
}

type Manual struct {
	name string
	path string
}

func (pc *PastCmd) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom left corner.
	v, err := g.SetView(pc.name, 1, maxY*2/3, maxX/3, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true

	command.m.Lock()
	defer command.m.Unlock()
	if command.ready {
		fmt.Fprintln(v, "> "+command.str)
	}
	command.ready = false

	return nil
}

func (i *Input) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom.
	v, err := g.SetView(i.name, 1, maxY-5, maxX-1, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Wrap = true
	v.Autoscroll = true
	v.Editor = i
	v.Editable = true
	return nil
}

func (l *Logger) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Right side.
	v, err := g.SetView(l.name, maxX/3+1, 1, maxX-1, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	return nil
}

func (m *Manual) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Top left corner.
	v, err := g.SetView(m.name, 1, 1, maxX/3, maxY*2/3-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	v.Clear()
	dat, err := ioutil.ReadFile(m.path)
	if err != nil {
		fmt.Fprintln(v, "manual not found: "+m.path)
		return nil
	}
	fmt.Fprintln(v, string(dat))
	return nil
}

func (i *Input) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyEnter:
		// Read buffer.
		s := v.Buffer()
		// Remove \n from string.
		s = strings.Replace(s, "\n", "", -1)
		err := i.submit(s)
		command.m.Lock()
		command.str = s
		if err != nil {
			command.str = s + "\n" + err.Error()
		}
		command.ready = true
		command.m.Unlock()

		// Reset cursor.
		v.Clear()
		v.SetOrigin(0, 0)
		v.SetCursor(0, 0)

	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	}
}

func SetFocus(name string) func(g *gocui.Gui) error {
	return func(g *gocui.Gui) error {
		_, err := g.SetCurrentView(name)
		return err
	}
}

// ViewWriter appends everything written to it to a view. It is safe to use from any
// goroutine, e.g. as the output of a slog handler.
type ViewWriter struct {
	g    *gocui.Gui
	name string
}

func NewViewWriter(g *gocui.Gui, name string) *ViewWriter {
	return &ViewWriter{g: g, name: name}
}

func (w *ViewWriter) Write(p []byte) (int, error) {
	// p may be reused by the caller once Write returns.
	data := append([]byte(nil), p...)
	w.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(w.name)
		if err != nil {
			// The view is not laid out yet, drop the line.
			return nil
		}
		_, err = v.Write(data)
		return err
	})
	return len(p), nil
}

// Create a GUI. Every line entered in the input box is passed to submit, an error is shown
// under the line in the past command box.
func CreateGui(submit func(string) error, manualPath string) (*gocui.Gui, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	g.Cursor = true

	pc := &PastCmd{name: PastCmdView}
	l := &Logger{name: LoggerView}
	m := &Manual{name: ManualView, path: manualPath}
	input := &Input{name: InputView, submit: submit}
	focus := gocui.ManagerFunc(SetFocus(InputView))
	g.SetManager(pc, input, l, m, focus)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		g.Close()
		return nil, err
	}

	return g, nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
