package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/sequence"
	"github.com/cwbudde/algo-nesynth/synth"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	baseParams       *synth.Params
	defs             []knobDef
	initCandidate    candidate
	note             int
	baseVelocity     int
	baseHold         float64
	tail             float64
	sampleRate       int
	blockSize        int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	checkpointEvery  int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
	quiet            bool

	// checkpoint is called with every checkpointEvery-th improvement.
	checkpoint func(best candidate, eval optimizationEval, evals int, top []topCandidate) error
}

type optimizationEval struct {
	metrics  analysis.Metrics
	params   *synth.Params
	velocity int
	hold     float64
}

type optimizationResult struct {
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestEval    optimizationEval
	top         []topCandidate
	checkpoints int
}

func (cfg *optimizationConfig) logf(format string, args ...any) {
	if !cfg.quiet {
		fmt.Printf(format, args...)
	}
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	if len(cfg.defs) == 0 {
		return nil, errors.New("no knobs to optimize")
	}
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	cfg.logf("Start score=%.4f similarity=%.2f%%\n", initialEval.metrics.Score, initialEval.metrics.Similarity*100.0)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(workers, 1)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					res, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					var improveNum int64
					var snapBest candidate
					var snapEval optimizationEval
					var snapTop []topCandidate

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), res.metrics, cfg.defs, cand)
					if res.metrics.Score < state.bestEval.metrics.Score {
						state.best = cloneCandidate(cand)
						state.bestEval = res
						improveNum = atomic.AddInt64(&improves, 1)
						snapBest = cloneCandidate(state.best)
						snapEval = state.bestEval
						snapTop = cloneTopCandidates(state.top)
					}
					bestScore := state.bestEval.metrics.Score
					state.mu.Unlock()

					if improveNum > 0 {
						cfg.logf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improveNum, evalNum, snapEval.metrics.Score, snapEval.metrics.Similarity*100.0)
						if cfg.checkpoint != nil && cfg.checkpointEvery > 0 && improveNum%int64(cfg.checkpointEvery) == 0 {
							outputMu.Lock()
							if err := cfg.checkpoint(snapBest, snapEval, int(atomic.LoadInt64(&evals)), snapTop); err != nil {
								fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
							} else {
								state.mu.Lock()
								state.checkpoints++
								state.mu.Unlock()
							}
							outputMu.Unlock()
						}
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						cfg.logf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return res.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestEval:    state.bestEval,
		top:         cloneTopCandidates(state.top),
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
		checkpoints: state.checkpoints,
	}, nil
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate) (optimizationEval, error) {
	params, velocity, hold := applyCandidate(cfg.baseParams, cfg.baseVelocity, cfg.baseHold, cfg.defs, cand)
	out, err := renderNote(params, cfg.note, velocity, hold, cfg.tail, cfg.sampleRate, cfg.blockSize, cfg.seed)
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics:  analysis.Compare(cfg.reference, monoOf(out), cfg.sampleRate),
		params:   params,
		velocity: velocity,
		hold:     hold,
	}, nil
}

// renderNote plays one note through a fresh engine.
func renderNote(p *synth.Params, note, velocity int, hold, tail float64, sampleRate, blockSize int, seed int64) ([2][]float32, error) {
	e, err := synth.NewEngine[float32](synth.EngineConfig{
		SampleRate: float64(sampleRate),
		MaxVoices:  1,
		Params:     p,
		NoiseSeed:  seed,
	})
	if err != nil {
		return [2][]float32{}, err
	}
	seq := sequence.Note(note, float64(velocity)/127, time.Duration(hold*float64(time.Second)))
	return sequence.Render(e, seq, blockSize, time.Duration(tail*float64(time.Second))), nil
}

func monoOf(out [2][]float32) []float64 {
	m := make([]float64, len(out[0]))
	for i := range m {
		m[i] = 0.5 * (float64(out[0][i]) + float64(out[1][i]))
	}
	return m
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

func cloneTopCandidates(in []topCandidate) []topCandidate {
	out := make([]topCandidate, len(in))
	for i := range in {
		entry := in[i]
		entry.Knobs = make(map[string]float64, len(in[i].Knobs))
		for k, v := range in[i].Knobs {
			entry.Knobs[k] = v
		}
		out[i] = entry
	}
	return out
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.bestEval.metrics.Score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}
