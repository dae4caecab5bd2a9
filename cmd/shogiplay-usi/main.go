// Command shogiplay-usi is the USI protocol entrypoint, grounded on
// cmd/chessplay-uci/main.go: wire the shared hash table and history store,
// auto-load an NNUE weights file if one is reachable (falling back to the
// material evaluator otherwise, spec.md §7), build the worker pool and
// driver around them, and run the USI loop on stdin/stdout.
package main

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/hailam/shogiplay/internal/driver"
	"github.com/hailam/shogiplay/internal/history"
	"github.com/hailam/shogiplay/internal/matereval"
	"github.com/hailam/shogiplay/internal/nnue"
	"github.com/hailam/shogiplay/internal/search"
	"github.com/hailam/shogiplay/internal/tt"
	"github.com/hailam/shogiplay/internal/usi"
	"github.com/hailam/shogiplay/internal/workerpool"
)

const defaultEvalFile = "shogiplay.nnue"

func main() {
	profilePath := os.Getenv("CPUPROFILE")
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	loop := usi.New(os.Stdout, buildEngine)
	if err := loop.Run(os.Stdin); err != nil {
		log.Fatal(err)
	}
}

// buildEngine is the usi.EngineFactory: it (re)builds the shared
// TT/history/pool/driver whenever setoption changes hash size, thread
// count, or the eval file, mirroring cmd/chessplay-uci/main.go's
// autoLoadNNUE fallback-to-classical-eval behavior.
func buildEngine(opts usi.Options) (*driver.Driver, error) {
	tbl := tt.New(opts.HashMB)
	hist := history.New()

	threads := opts.Threads
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}

	net, evalErr := loadNetwork(opts.EvalFile)

	var factory workerpool.EvaluatorFactory
	if net != nil {
		factory = func() search.Evaluator { return nnue.NewEvaluator(net) }
	} else {
		if evalErr != nil {
			log.Printf("shogiplay-usi: NNUE unavailable (%v), using material evaluator", evalErr)
		}
		factory = func() search.Evaluator { return matereval.New() }
	}

	pool := workerpool.New(threads, tbl, hist, factory)
	drv := driver.New(pool, tbl, hist)
	drv.Skill = opts.SkillLevel
	return drv, nil
}

// loadNetwork tries the configured eval file, then a couple of
// conventional locations, the way cmd/chessplay-uci/main.go's
// autoLoadNNUE walks a search path before giving up.
func loadNetwork(configured string) (*nnue.Network, error) {
	candidates := []string{}
	if configured != "" {
		candidates = append(candidates, configured)
	}
	candidates = append(candidates,
		defaultEvalFile,
		filepath.Join(".", "nnue", defaultEvalFile),
		filepath.Join(homeDir(), ".shogiplay", defaultEvalFile),
	)

	var lastErr error
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		net, err := nnue.LoadNetwork(path)
		if err != nil {
			lastErr = err
			continue
		}
		return net, nil
	}
	return nil, lastErr
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
