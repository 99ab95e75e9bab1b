package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/hailam/whitecore/internal/engine"
	"github.com/hailam/whitecore/internal/eval"
	"github.com/hailam/whitecore/internal/storage"
	"github.com/hailam/whitecore/internal/uci"
)

var (
	hashMB     = flag.Int("hash", storage.DefaultHash, "transposition table size in MB")
	threads    = flag.Int("threads", storage.DefaultThreads, "number of search threads")
	overhead   = flag.Int("overhead", storage.DefaultMoveOverhead, "move overhead in milliseconds")
	dataDir    = flag.String("data-dir", "", "directory for persisted options (default: platform data dir)")
	logLevel   = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	benchDepth = flag.Int("bench", 0, "run the benchmark to this depth and exit")
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile into this directory")
	evalFile   = flag.String("evalfile", "", "big NNUE network file")
	evalSmall  = flag.String("evalfile-small", "", "small NNUE network file")
)

func main() {
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	log = log.Level(level)

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.Quiet).Stop()
	}

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := storage.DefaultOptions()
	var store *storage.Storage
	if s, err := storage.Open(*dataDir, log); err != nil {
		log.Warn().Err(err).Msg("options will not be persisted")
	} else {
		store = s
		defer store.Close()
		if opts, err = store.LoadOptions(); err != nil {
			log.Warn().Err(err).Msg("using default options")
		}
	}

	// Flags given on the command line win over stored options.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hash":
			opts.Hash = *hashMB
		case "threads":
			opts.Threads = *threads
		case "overhead":
			opts.MoveOverhead = *overhead
		case "evalfile":
			opts.EvalFile = *evalFile
		case "evalfile-small":
			opts.EvalFileSmall = *evalSmall
		}
	})
	if err := opts.Validate(); err != nil {
		return err
	}

	m, err := engine.NewManager(opts.Hash, opts.Threads)
	if err != nil {
		return err
	}
	m.SetLogger(log.With().Str("component", "search").Logger())
	m.SetMoveOverhead(time.Duration(opts.MoveOverhead) * time.Millisecond)
	loadNetwork(m, &opts, log)
	log.Debug().
		Int("hash", opts.Hash).
		Int("threads", opts.Threads).
		Int("overhead_ms", opts.MoveOverhead).
		Bool("nnue", m.EvalNetwork() != nil).
		Msg("engine ready")

	if *benchDepth > 0 {
		r, err := engine.Bench(ctx, m, *benchDepth)
		if err != nil {
			return err
		}
		fmt.Printf("Nodes searched: %d\n", r.Nodes)
		fmt.Printf("Time: %d ms\n", r.Elapsed.Milliseconds())
		fmt.Printf("Nodes/second: %d\n", r.NPS())
		return nil
	}

	var optStore uci.OptionStore
	if store != nil {
		optStore = store
	}
	return uci.New(m, opts, optStore, log).Run(ctx, os.Stdin, os.Stdout)
}

// loadNetwork loads the configured NNUE pair or, when none is configured,
// the default pair from the data directory or the working directory.
// Without a network the engine evaluates classically.
func loadNetwork(m *engine.Manager, opts *storage.Options, log zerolog.Logger) {
	if !opts.UseNNUE() {
		dirs := []string{"nnue", "."}
		dir := *dataDir
		if dir == "" {
			dir, _ = storage.DataDir()
		}
		if dir != "" {
			dirs = append([]string{filepath.Join(dir, "nnue")}, dirs...)
		}
		big, small, ok := eval.FindNetwork(dirs...)
		if !ok {
			log.Info().Msg("no nnue found, using classical evaluation")
			return
		}
		opts.EvalFile, opts.EvalFileSmall = big, small
	}

	net, err := eval.LoadNetwork(opts.EvalFile, opts.EvalFileSmall)
	if err != nil {
		log.Warn().Err(err).Msg("using classical evaluation")
		return
	}
	m.SetEvalNetwork(net)
	log.Info().Str("big", net.BigFile).Str("small", net.SmallFile).Msg("nnue loaded")
}
