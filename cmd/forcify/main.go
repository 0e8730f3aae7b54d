// forcify is the command-line front end for the forcify engine: it replays
// gesture scripts, watches Linux input devices, shows a live
// terminal gauge and inspects configuration.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	configPath  = flag.String("config", "", "path to config file")
	metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	logLevel    = flag.String("log-level", "", "override log level (debug, info, warn, error)")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch cmd {
	case "replay":
		err = cmdReplay(args)
	case "watch":
		err = cmdWatch(args)
	case "meter":
		err = cmdMeter(args)
	case "config":
		err = cmdConfig(args)
	case "detect":
		err = cmdDetect(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `forcify - unified force input

Usage: forcify [options] <command> [args]

Commands:
  replay [-realtime] [-json] <script>   Play a gesture script and print force events
  watch [-device <path>] [-grab]        Print force events from a Linux input device
  meter [-device <path>] [script]       Show a live force gauge in the terminal
  config [show|init|schema|path]        Inspect or create the configuration file
  detect [platform]                     Show dialect detection for a user agent or OS
  help                                  Show this help message

Options:
  -config <path>        Path to config file (default: platform config dir)
  -metrics-addr <addr>  Serve metrics, health and the /events stream, e.g. :9464
  -log-level <level>    Override the configured log level`)
}
