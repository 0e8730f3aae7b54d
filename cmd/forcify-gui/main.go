// forcify-gui is a press pad that visualizes forcify force events.
package main

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"forcify/cmd/forcify-gui/internal/theme"
	"forcify/cmd/forcify-gui/internal/ui"
	"forcify/internal/config"
	"forcify/internal/logging"
	"forcify/pkg/forcify"
)

func main() {
	go func() {
		w := new(app.Window)
		w.Option(app.Title("forcify"))
		w.Option(app.Size(unit.Dp(480), unit.Dp(640)))

		if err := loop(w); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer logger.Close()

	platform := cfg.Platform
	registry := forcify.Global()
	if platform != "" {
		registry = forcify.NewRegistry(platform)
	}

	inst, err := forcify.New(forcify.NewHandle("pad"),
		forcify.WithOverrides(cfg.Force),
		forcify.WithRegistry(registry),
		forcify.WithLogger(logger.WithComponent("engine").Logger),
	)
	if err != nil {
		return err
	}
	defer forcify.Release(inst)

	t := theme.NewTheme(material.NewTheme())
	pad := ui.NewPad(t, inst, w.Invalidate)

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			pad.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
