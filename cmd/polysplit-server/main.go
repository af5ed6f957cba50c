package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"

	"github.com/tidwall/polysplit/core"
	"github.com/tidwall/polysplit/internal/config"
	"github.com/tidwall/polysplit/internal/log"
	"github.com/tidwall/polysplit/internal/server"
)

var (
	port          int
	host          string
	configPath    string
	verbose       bool
	veryVerbose   bool
	quiet         bool
	pidfile       string
	legacyWinding bool
)

func main() {
	gitsha := " (" + core.GitSHA + ")"
	if gitsha == " (0000000)" {
		gitsha = ""
	}
	versionLine := `polysplit-server version: ` + core.Version + gitsha

	output := os.Stderr
	flag.Usage = func() {
		fmt.Fprintf(output,
			versionLine+`

Usage: polysplit-server [-p port]

Basic Options:
  -h hostname : listening host
  -p port     : listening port (default: 9860)
  -c path     : config file (default: none)
  -q          : no logging. totally silent output
  -v          : enable verbose logging
  -vv         : enable very verbose logging

Advanced Options:
  --pidfile path     : file that contains the pid
  --threads num      : number of features split at once (default: num cores)
  --legacy-winding   : wind exterior rings clockwise

`,
		)
	}

	// parse non standard args.
	nargs := []string{os.Args[0]}
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--help":
			output = os.Stdout
			flag.Usage()
			return
		case "--version":
			fmt.Fprintf(os.Stdout, "%s\n", versionLine)
			return
		case "--threads", "-threads":
			i++
			if i < len(os.Args) {
				n, err := strconv.ParseUint(os.Args[i], 10, 16)
				if err != nil {
					fmt.Fprintf(os.Stderr, "threads must be a valid number\n")
					os.Exit(1)
				}
				core.NumThreads = int(n)
				continue
			}
			fmt.Fprintf(os.Stderr, "threads must have a value\n")
			os.Exit(1)
		}
		nargs = append(nargs, os.Args[i])
	}
	os.Args = nargs

	flag.IntVar(&port, "p", 9860, "The listening port.")
	flag.StringVar(&pidfile, "pidfile", "", "A file that contains the pid")
	flag.StringVar(&host, "h", "", "The listening host.")
	flag.StringVar(&configPath, "c", "", "The config file.")
	flag.BoolVar(&legacyWinding, "legacy-winding", false, "Wind exterior rings clockwise.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.Parse()

	var logw io.Writer = os.Stderr
	if quiet {
		logw = ioutil.Discard
	}
	log.SetOutput(logw)
	if quiet {
		log.Level = 0
	} else if veryVerbose {
		log.Level = 3
	} else if verbose {
		log.Level = 2
	} else {
		log.Level = 1
	}
	core.ShowDebugMessages = veryVerbose
	core.LegacyWinding = legacyWinding

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if core.NumThreads > 0 {
		cfg.Threads = core.NumThreads
	}
	if cfg.LogConfig != "" {
		if err := log.Build(cfg.LogConfig); err != nil {
			log.Fatalf("logconfig: %v", err)
		}
		log.LogJSON = true
		defer log.Sync()
	}

	hostd := ""
	if host != "" {
		hostd = "Addr: " + host + ", "
	}

	var cleanedup bool
	var cleanupMu sync.Mutex
	cleanup := func() {
		cleanupMu.Lock()
		defer cleanupMu.Unlock()
		if cleanedup {
			return
		}
		if pidfile != "" {
			os.Remove(pidfile)
		}
		log.Sync()
		cleanedup = true
	}
	defer cleanup()

	var pidferr error
	if pidfile != "" {
		pidferr = ioutil.WriteFile(pidfile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0666)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		s := <-c
		log.Warnf("signal: %v", s)
		cleanup()
		switch {
		default:
			os.Exit(-1)
		case s == syscall.SIGHUP:
			os.Exit(1)
		case s == syscall.SIGINT:
			os.Exit(2)
		case s == syscall.SIGQUIT:
			os.Exit(3)
		case s == syscall.SIGTERM:
			os.Exit(0xf)
		}
	}()

	fmt.Fprintf(logw, `
   ___________
  |     |     |
  |     |_____|   polysplit %s%s %d bit (%s/%s)
  |_____|     |   %sPort: %d, PID: %d
  |     |     |   max vertices: %d
  |_____|_____|
`+"\n", core.Version, gitsha, strconv.IntSize, runtime.GOARCH, runtime.GOOS,
		hostd, port, os.Getpid(), cfg.MaxVertices)
	if pidferr != nil {
		log.Warnf("pidfile: %v", pidferr)
	}
	if err := server.Serve(host, port, cfg); err != nil {
		log.Fatal(err)
	}
}
