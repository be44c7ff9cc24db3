package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mc "github.com/rmera/gomc"
	"github.com/rmera/gomc/calc"
	"github.com/rmera/gomc/cfcmc"
	"github.com/rmera/gomc/chemplot"
	"github.com/rmera/gomc/chemstat"
	"github.com/rmera/gomc/config"
	"github.com/rmera/gomc/rng"
)

type runOptions struct {
	out         string
	metricsAddr string
	registry    *prometheus.Registry //a new one if nil
}

//result is what a run leaves behind.
type result struct {
	id       string
	report   string
	snapshot string
	plots    []string
	frames   []string
	move     *cfcmc.Move
	samples  *samples
}

//samples are the molecule counts and energies of each box after every move.
type samples struct {
	counts [][][]float64 //[box][kind][move]
	energy [][]float64   //[box][move]
}

func newSamples(S *mc.System, moves uint64) *samples {
	s := &samples{counts: make([][][]float64, len(S.Boxes)), energy: make([][]float64, len(S.Boxes))}
	for b := range S.Boxes {
		s.energy[b] = make([]float64, 0, moves)
		s.counts[b] = make([][]float64, len(S.Kinds))
		for k := range S.Kinds {
			s.counts[b][k] = make([]float64, 0, moves)
		}
	}
	return s
}

func (s *samples) add(S *mc.System) {
	for b := range S.Boxes {
		s.energy[b] = append(s.energy[b], S.Potential.Box[b].Total())
		for k := range S.Kinds {
			s.counts[b][k] = append(s.counts[b][k], float64(S.Mols.Count(k, b)))
		}
	}
}

//report writes the averages of the samples with their errors.
func (s *samples) report(w io.Writer, S *mc.System) error {
	for b := range S.Boxes {
		if len(s.energy[b]) == 0 {
			return nil
		}
		m, e := chemstat.MeanErr(s.energy[b])
		if _, err := fmt.Fprintf(w, "Box %d: energy %.4f +/- %.4f K (g %.1f)\n", b, m, e, chemstat.Inefficiency(s.energy[b])); err != nil {
			return err
		}
		for k, K := range S.Kinds {
			m, e := chemstat.MeanErr(s.counts[b][k])
			if _, err := fmt.Fprintf(w, "  %s: %.3f +/- %.3f molecules\n", K.Name, m, e); err != nil {
				return err
			}
		}
	}
	return nil
}

//simulate builds the system of cfg and runs its transfer moves, checking the tracked
//energy every checkpoint. The report, the bias snapshot, the final configuration of each
//box and the bias plots are written to opts.out, named after a new run id.
func simulate(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) error {
	_, err := execute(ctx, cfg, opts, logger)
	return err
}

func execute(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) (*result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := &result{id: uuid.NewString()[:8]}
	logger = logger.With("run", res.id)
	r := rng.New(cfg.Seed)
	S, T, err := config.Build(cfg, r, logger)
	if err != nil {
		return nil, err
	}
	C, L, err := config.Engines(cfg, S, T, logger)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	M, err := cfcmc.New(C, L, r, policy, cfg.Options(), logger)
	if err != nil {
		return nil, err
	}
	res.move = M
	res.samples = newSamples(S, cfg.Run.Moves)
	if cfg.Move.Bias != "" {
		if err := loadBias(M.Bias, cfg.Move.Bias); err != nil {
			return nil, err
		}
		logger.Info("bias loaded", "file", cfg.Move.Bias, "nu", M.Bias.Nu)
	}
	reg := opts.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	M.Stats.Metrics = cfcmc.NewMetrics(reg)
	if opts.metricsAddr != "" {
		srv := &http.Server{Addr: opts.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}
	logger.Info("starting", "ensemble", S.Ensemble, "temperature", 1/S.Beta, "moves", cfg.Run.Moves, "energy", S.Potential.Total().Total())
	start := time.Now()
	for i := uint64(0); i < cfg.Run.Moves; i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("interrupted", "move", i)
			break
		}
		o, err := mc.Attempt(M, i)
		if err != nil {
			if mc.IsCritical(err) {
				return nil, err
			}
			logger.Warn("move failed", "move", i, "error", err)
		}
		logger.Debug("transfer", "move", i, "outcome", o)
		res.samples.add(S)
		if (i+1)%cfg.Run.Checkpoint == 0 {
			if err := checkpoint(C, cfg.Run.DriftTol, i+1, logger); err != nil {
				return nil, err
			}
		}
	}
	logger.Info("finished", "elapsed", time.Since(start), "energy", S.Potential.Total().Total())
	if err := res.write(opts.out, cfg, S); err != nil {
		return nil, err
	}
	return res, nil
}

//checkpoint compares the tracked energy with a full recompute and replaces it.
//Drift beyond tol is logged, any other failure is returned.
func checkpoint(C *calc.Calculator, tol float64, move uint64, logger *slog.Logger) error {
	fresh, err := C.CheckDrift(C.S.Potential, tol)
	if err != nil && !errors.Is(err, calc.ErrDrift) {
		return err
	}
	C.S.Potential = fresh
	logger.Info("checkpoint", "move", move, "energy", fresh.Total().Total(), "drift", err != nil)
	return nil
}

func loadBias(B *cfcmc.Bias, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return mc.NewError(err.Error(), true, mc.ErrConfig, "loadBias")
	}
	defer f.Close()
	return B.Load(f)
}

func (R *result) write(dir string, cfg *config.Config, S *mc.System) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	M := R.move
	R.report = filepath.Join(dir, R.id+"_report.txt")
	f, err := os.Create(R.report)
	if err != nil {
		return err
	}
	if err := M.Stats.Report(f, S, M.Bias); err != nil {
		f.Close()
		return err
	}
	if err := R.samples.report(f, S); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	R.snapshot = filepath.Join(dir, R.id+"_bias.json.zst")
	f, err = os.Create(R.snapshot)
	if err != nil {
		return err
	}
	if err := M.Bias.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	for b := range S.Boxes {
		name := filepath.Join(dir, fmt.Sprintf("%s_box%d.xyz", R.id, b))
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := mc.WriteXYZ(f, S, b, cfg.TypeNames()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		R.frames = append(R.frames, name)
	}
	names := make([]string, len(S.Kinds))
	for k, K := range S.Kinds {
		if K.Transferable {
			names[k] = K.Name
		}
	}
	for b := range S.Boxes {
		if !M.Policy.Biased(b) {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("%s_box%d", R.id, b))
		if err := chemplot.BiasPlots(M.Bias, names, b, name); err != nil {
			return err
		}
		R.plots = append(R.plots, name+"_visits.png", name+"_bias.png")
	}
	return nil
}
