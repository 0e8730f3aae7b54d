package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	goruntime "runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"forcify/internal/config"
	"forcify/internal/feed"
	"forcify/internal/health"
	"forcify/pkg/forcify"
)

func cmdReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	realtime := fs.Bool("realtime", false, "play at wall-clock speed instead of simulated time")
	asJSON := fs.Bool("json", false, "print events as JSON lines")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: forcify replay [-realtime] [-json] <script>")
	}

	script, err := feed.LoadScript(fs.Arg(0))
	if err != nil {
		return err
	}

	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.Close()

	var clock forcify.Clock = forcify.NewFakeClock(time.Now())
	if *realtime {
		clock = forcify.RealClock()
	}

	registry := rt.platformRegistry(script.Platform)
	name := script.Name
	if name == "" {
		name = fs.Arg(0)
	}
	inst, err := forcify.New(forcify.NewHandle(name), rt.options(registry, clock)...)
	if err != nil {
		return err
	}
	defer forcify.Release(inst)

	printer := newEventPrinter(os.Stdout, clock.Now(), *asJSON)
	inst.On(forcify.EventForce, printer.print)
	inst.On(forcify.EventForce, rt.publish)
	rt.serve()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.logger.Debug("replaying script", "script", fs.Arg(0), "steps", len(script.Steps), "platform", registry.OSFamily())
	if err := script.Play(ctx, inst, clock); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	if !*asJSON {
		printDetection(os.Stdout, registry.Snapshot())
	}
	return nil
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	device := fs.String("device", "", "input device (default from config)")
	grab := fs.Bool("grab", false, "grab the device exclusively")
	asJSON := fs.Bool("json", false, "print events as JSON lines")
	fs.Parse(args)

	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.Close()

	path := *device
	if path == "" {
		path = rt.cfg.Feed.Device
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, err := feed.OpenEvdev(path,
		feed.WithGrab(*grab || rt.cfg.Feed.Grab),
		feed.WithEvdevLogger(rt.logger.WithComponent("feed").Logger),
	)
	if err != nil {
		return err
	}
	defer reader.Close()

	registry := rt.platformRegistry("")
	printer := newEventPrinter(os.Stdout, time.Now(), *asJSON)
	sink, err := newInstanceSink(func() (*forcify.Instance, error) {
		inst, err := forcify.New(forcify.NewHandle(path), rt.options(registry, nil)...)
		if err != nil {
			return nil, err
		}
		return inst.On(forcify.EventForce, printer.print).On(forcify.EventForce, rt.publish), nil
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	loader, err := rt.watchConfig(ctx, func(*config.Config) { sink.MarkStale() })
	if err != nil {
		rt.logger.Warn("configuration hot reload unavailable", "error", err)
	}
	if loader != nil {
		defer loader.Close()
	}

	var running atomic.Bool
	var runErr atomic.Value
	rt.health.RegisterFunc("engine", true, health.InstanceCheck(sink.Instance))
	rt.health.RegisterFunc("feed", true, health.FeedCheck(running.Load, func() error {
		err, _ := runErr.Load().(error)
		return err
	}))

	rt.serve()
	rt.logger.Info("watching input device",
		"device", path,
		"name", reader.Name(),
		"pressure", reader.Pressure().Valid(),
	)

	running.Store(true)
	rt.health.SetReady(true)
	err = reader.Run(ctx, sink)
	running.Store(false)
	rt.health.SetReady(false)

	if err != nil && !errors.Is(err, context.Canceled) {
		runErr.Store(err)
		return err
	}
	return nil
}

func cmdConfig(args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "show":
		fs := flag.NewFlagSet("config show", flag.ExitOnError)
		format := fs.String("format", "toml", "output format: toml, json, yaml")
		fs.Parse(args)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Encode(cfg, config.Format(*format))
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		fmt.Println()
		printSettings(os.Stdout, cfg.Settings())
		return nil

	case "init":
		path := *configPath
		if path == "" {
			path = config.ConfigPath()
		}
		_, created, err := config.LoadOrCreate(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created %s\n", path)
		} else {
			fmt.Printf("%s already exists\n", path)
		}
		return nil

	case "schema":
		_, err := os.Stdout.Write(config.Schema())
		return err

	case "path":
		if *configPath != "" {
			fmt.Println(*configPath)
		} else {
			fmt.Println(config.ConfigPath())
		}
		return nil

	default:
		return fmt.Errorf("unknown config command: %s", sub)
	}
}

func cmdDetect(args []string) error {
	platform := strings.Join(args, " ")
	if platform == "" {
		platform = goruntime.GOOS
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := cfg.Settings()
	family := forcify.ParseOSFamily(platform)

	fmt.Printf("Platform:            %s\n", platform)
	fmt.Printf("OS family:           %s\n", family)
	fmt.Printf("Constant-force shim: %s\n", onOff(s.ShimWeirdBrowser))
	fmt.Printf("Fractional shim:     %s\n", onOff(s.ShimWeirdBrowser && s.ShimFractionalOnAndroid && family == forcify.OSAndroid))
	fmt.Printf("Long-press fallback: %s\n", onOff(s.FallbackToLongPress))
	return nil
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func printSettings(w io.Writer, s forcify.Settings) {
	fmt.Fprintln(w, "# resolved")
	fmt.Fprintf(w, "#   long press delay:     %v\n", s.LongPressDelay)
	fmt.Fprintf(w, "#   long press duration:  %v\n", s.LongPressDuration)
	fmt.Fprintf(w, "#   fallback:             %t\n", s.FallbackToLongPress)
	fmt.Fprintf(w, "#   weird browser shim:   %t\n", s.ShimWeirdBrowser)
	fmt.Fprintf(w, "#   hardware force range: %g..%g\n", s.HardwareForceMin, s.HardwareForceMax)
	fmt.Fprintf(w, "#   tick interval:        %v\n", s.TickInterval)
}

func printDetection(w io.Writer, d forcify.Detection) {
	fmt.Fprintf(w, "detection: os=%s hardware=%t touch=%t weird_browser=%t\n",
		d.OSFamily, d.HardwareForceObserved, d.TouchForceObserved, d.WeirdBrowserObserved)
}

// eventPrinter writes force events as text or JSON lines. Handlers may run
// on timer goroutines, so writes are serialized.
type eventPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
	enc   *json.Encoder
}

func newEventPrinter(w io.Writer, start time.Time, asJSON bool) *eventPrinter {
	p := &eventPrinter{w: w, start: start}
	if asJSON {
		p.enc = json.NewEncoder(w)
	}
	return p
}

func (p *eventPrinter) print(e forcify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enc != nil {
		_ = p.enc.Encode(e)
		return
	}

	marker := ""
	if e.Emulated {
		marker = " (emulated)"
	}
	ms := float64(e.Time.Sub(p.start)) / float64(time.Millisecond)
	fmt.Fprintf(p.w, "%9.1fms  %-8s %-7s %.3f%s\n", ms, e.Source, e.Phase, e.Force, marker)
}

// instanceSink feeds one instance and swaps in a freshly built one between
// gestures after a configuration reload.
type instanceSink struct {
	build func() (*forcify.Instance, error)

	mu    sync.Mutex
	inst  *forcify.Instance
	stale bool
}

func newInstanceSink(build func() (*forcify.Instance, error)) (*instanceSink, error) {
	inst, err := build()
	if err != nil {
		return nil, err
	}
	return &instanceSink{build: build, inst: inst}, nil
}

// MarkStale schedules a rebuild before the next event outside a gesture.
func (s *instanceSink) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *instanceSink) Dispatch(ev forcify.RawEvent) {
	s.mu.Lock()
	if s.stale && !s.inst.Active() {
		if inst, err := s.build(); err == nil {
			forcify.Release(s.inst)
			s.inst = inst
			s.stale = false
		}
	}
	inst := s.inst
	s.mu.Unlock()

	inst.Dispatch(ev)
}

// Instance returns the instance currently receiving events.
func (s *instanceSink) Instance() *forcify.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst
}

func (s *instanceSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	forcify.Release(s.inst)
}
