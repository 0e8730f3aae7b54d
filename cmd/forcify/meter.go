package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"forcify/internal/feed"
	"forcify/pkg/forcify"
)

var (
	meterTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	meterMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	meterError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type forceMsg forcify.Event

type feedDoneMsg struct{ err error }

// meterModel renders the latest force reading as a bar.
type meterModel struct {
	source string
	bar    progress.Model

	last     forcify.Event
	seen     bool
	peak     float64
	gestures int
	done     bool
	err      error
}

func newMeterModel(source string) meterModel {
	return meterModel{
		source: source,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m meterModel) Init() tea.Cmd { return nil }

func (m meterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.peak = 0
			m.gestures = 0
		}

	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > 80 {
			w = 80
		}
		if w < 10 {
			w = 10
		}
		m.bar.Width = w

	case forceMsg:
		e := forcify.Event(msg)
		if e.Phase == forcify.PhaseBegan {
			m.gestures++
		}
		if e.Force > m.peak {
			m.peak = e.Force
		}
		m.last = e
		m.seen = true

	case feedDoneMsg:
		m.done = true
		m.err = msg.err
	}
	return m, nil
}

func (m meterModel) View() string {
	var b strings.Builder
	b.WriteString(meterTitle.Render("forcify meter"))
	b.WriteString(meterMuted.Render("  " + m.source))
	b.WriteString("\n\n")

	force := 0.0
	if m.seen && !m.last.Terminal() {
		force = m.last.Force
	}
	b.WriteString(m.bar.ViewAs(force))
	b.WriteString("\n\n")

	if m.seen {
		kind := string(m.last.Source)
		if m.last.Emulated {
			kind += " (emulated)"
		}
		fmt.Fprintf(&b, "force %.3f  %s  %s\n", m.last.Force, m.last.Phase, kind)
	} else {
		b.WriteString("waiting for input\n")
	}
	fmt.Fprintf(&b, "peak  %.3f  gestures %d\n", m.peak, m.gestures)

	switch {
	case m.err != nil:
		b.WriteString("\n" + meterError.Render("feed stopped: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("\n" + meterMuted.Render("feed finished") + "\n")
	}
	b.WriteString("\n" + meterMuted.Render("q quit  r reset peak") + "\n")
	return b.String()
}

func cmdMeter(args []string) error {
	fs := flag.NewFlagSet("meter", flag.ExitOnError)
	device := fs.String("device", "", "input device (default from config)")
	grab := fs.Bool("grab", false, "grab the device exclusively")
	fs.Parse(args)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("meter needs a terminal; use 'forcify watch' for piped output")
	}

	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		source   string
		clock    forcify.Clock
		registry *forcify.Registry
		run      func(ctx context.Context, sink feed.Sink) error
	)

	if fs.NArg() > 0 {
		script, err := feed.LoadScript(fs.Arg(0))
		if err != nil {
			return err
		}
		source = fs.Arg(0)
		clock = forcify.RealClock()
		registry = rt.platformRegistry(script.Platform)
		run = func(ctx context.Context, sink feed.Sink) error {
			return script.Play(ctx, sink, clock)
		}
	} else {
		path := *device
		if path == "" {
			path = rt.cfg.Feed.Device
		}
		reader, err := feed.OpenEvdev(path,
			feed.WithGrab(*grab || rt.cfg.Feed.Grab),
			feed.WithEvdevLogger(rt.logger.WithComponent("feed").Logger),
		)
		if err != nil {
			return err
		}
		defer reader.Close()
		source = fmt.Sprintf("%s (%s)", path, reader.Name())
		registry = rt.platformRegistry("")
		run = reader.Run
	}

	inst, err := forcify.New(forcify.NewHandle(source), rt.options(registry, clock)...)
	if err != nil {
		return err
	}
	defer forcify.Release(inst)

	program := tea.NewProgram(newMeterModel(source), tea.WithContext(ctx))
	inst.On(forcify.EventForce, func(e forcify.Event) { program.Send(forceMsg(e)) })
	inst.On(forcify.EventForce, rt.publish)
	rt.serve()

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	go func() {
		err := run(feedCtx, inst)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		program.Send(feedDoneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
