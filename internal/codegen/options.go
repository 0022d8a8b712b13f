package codegen

import (
	"fmt"
	"log/slog"

	"github.com/roach88/ramc/internal/index"
)

// ParallelStrategy selects how Parallel statements are lowered.
type ParallelStrategy int

const (
	// ParallelSequential lowers parallel children one after another with no
	// dispatch instructions.
	ParallelSequential ParallelStrategy = iota
	// ParallelForkJoin emits PARALLEL with one start address per child and
	// ends every child with STOP_PARALLEL. A single child is still lowered
	// sequentially.
	ParallelForkJoin
)

var parallelNames = map[ParallelStrategy]string{
	ParallelSequential: "sequential",
	ParallelForkJoin:   "forkjoin",
}

func (s ParallelStrategy) String() string {
	if name, ok := parallelNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ParallelStrategy(%d)", int(s))
}

// ParseParallelStrategy maps a strategy name to its value. The empty string
// is the sequential strategy.
func ParseParallelStrategy(s string) (ParallelStrategy, error) {
	if s == "" {
		return ParallelSequential, nil
	}
	for strategy, name := range parallelNames {
		if name == s {
			return strategy, nil
		}
	}
	return ParallelSequential, fmt.Errorf("unknown parallel strategy %q (want sequential or forkjoin)", s)
}

// Options configures a Generator.
type Options struct {
	// Parallel selects the Parallel lowering. Defaults to sequential.
	Parallel ParallelStrategy

	// Analysis supplies index orderings. Nil runs index.Analyze on each
	// compiled program.
	Analysis index.Analysis

	// Logger receives compilation records. Nil uses slog.Default().
	Logger *slog.Logger
}
