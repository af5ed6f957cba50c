package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/polysplit/core"
	"github.com/tidwall/polysplit/internal/archive"
	"github.com/tidwall/polysplit/internal/config"
	"github.com/tidwall/polysplit/internal/job"
	"github.com/tidwall/polysplit/internal/log"
	"github.com/tidwall/pretty"
)

var (
	maxVertices   int
	outPath       string
	format        string
	configPath    string
	verbose       bool
	veryVerbose   bool
	quiet         bool
	legacyWinding bool
)

func main() {
	gitsha := " (" + core.GitSHA + ")"
	if gitsha == " (0000000)" {
		gitsha = ""
	}
	versionLine := `polysplit version: ` + core.Version + gitsha

	output := os.Stderr
	flag.Usage = func() {
		fmt.Fprintf(output,
			versionLine+`

Usage: polysplit [-m max] [-o path] input.geojson

Basic Options:
  -m num      : max vertices per part (default: %d)
  -o path     : output file (default: <input>_split_parts.zip)
  -f format   : zip or geojson (default: zip)
  -c path     : config file (default: none)
  -q          : no logging. totally silent output
  -v          : enable verbose logging
  -vv         : enable very verbose logging

Advanced Options:
  --threads num      : number of features split at once (default: num cores)
  --legacy-winding   : wind exterior rings clockwise

`, core.DefaultMaxVertices,
		)
	}

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

	flag.IntVar(&maxVertices, "m", 0, "Max vertices per part.")
	flag.StringVar(&outPath, "o", "", "The output file.")
	flag.StringVar(&format, "f", "zip", "The output format.")
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

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func run(input string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.LogConfig != "" {
		if err := log.Build(cfg.LogConfig); err != nil {
			return fmt.Errorf("logconfig: %w", err)
		}
		log.LogJSON = true
		defer log.Sync()
	}
	if maxVertices != 0 {
		if err := cfg.Set(config.MaxVertices, strconv.Itoa(maxVertices)); err != nil {
			return err
		}
	}
	if core.NumThreads > 0 {
		cfg.Threads = core.NumThreads
	}
	format = strings.ToLower(format)
	if format != "zip" && format != "geojson" {
		return fmt.Errorf("invalid format '%s'", format)
	}

	data, err := ioutil.ReadFile(input)
	if err != nil {
		return err
	}
	features, err := job.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	parts, stats, err := job.Run(context.Background(), features, job.Options{
		MaxVertices:   cfg.MaxVertices,
		Threads:       cfg.Threads,
		LegacyWinding: core.LegacyWinding,
		Progress: func(done, total int) {
			log.Infof("processing feature %d of %d", done, total)
		},
	})
	if err != nil {
		return err
	}
	if stats.Fallbacks > 0 {
		log.Warnf("%d parts could not be split below %d vertices",
			stats.Fallbacks, cfg.MaxVertices)
	}

	base := archive.BaseName(input)
	if outPath == "" {
		name := archive.FileName(base)
		if format == "geojson" {
			name = base + "_split.geojson"
		}
		outPath = filepath.Join(filepath.Dir(input), name)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if format == "geojson" {
		_, err = w.Write(pretty.Pretty([]byte(job.Collection(parts))))
	} else {
		err = archive.Write(w, base, parts)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Infof("done! %d parts created in %s", len(parts), outPath)
	return nil
}
