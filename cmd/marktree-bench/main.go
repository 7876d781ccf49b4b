// Command marktree-bench runs a random mark workload against a tree,
// checking its invariants along the way, and prints a throughput report.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alexhholmes/marktree"
	"github.com/alexhholmes/marktree/cmd/marktree-bench/config"
	"github.com/alexhholmes/marktree/logger"
)

func main() {
	var (
		path  = flag.String("config", "", "workload YAML file")
		ops   = flag.Int("ops", -1, "override the number of operations")
		check = flag.Int("check-every", -1, "override the check interval")
	)
	flag.Parse()

	if err := run(*path, *ops, *check); err != nil {
		fmt.Fprintf(os.Stderr, "marktree-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, ops, check int) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if ops >= 0 {
		cfg.Ops = ops
	}
	if check >= 0 {
		cfg.CheckEvery = check
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, sync, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer sync()

	tree, err := marktree.NewTree(
		marktree.WithBranchFactor(cfg.BranchFactor),
		marktree.WithLookupCache(cfg.LookupCache),
		marktree.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("create tree: %w", err)
	}

	fmt.Printf("Marks: %d, Ops: %d, Branch factor: %d\n\n", cfg.Marks, cfg.Ops, cfg.BranchFactor)
	w := newWorkload(cfg, tree)
	r, err := w.run(func(done int, elapsed time.Duration) {
		fmt.Printf("Progress: %d/%d ops (%.0f ops/sec)\n", done, cfg.Ops, float64(done)/elapsed.Seconds())
	})
	if err != nil {
		return err
	}
	fmt.Println(r)
	return nil
}

// newLogger builds the tree logger for the configured backend and returns a
// function flushing it.
func newLogger(c config.Log) (marktree.Logger, func(), error) {
	switch c.Backend {
	case "logrus":
		lvl, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		l := logrus.New()
		l.SetLevel(lvl)
		return logger.NewLogrus(l), func() {}, nil
	default:
		lvl, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		l, err := zc.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("build logger: %w", err)
		}
		return logger.NewZap(l), func() { _ = l.Sync() }, nil
	}
}
