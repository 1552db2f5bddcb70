// SPDX-License-Identifier: MIT

package mcmc

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/jeffpollock9/probability/joint"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

// Initial states are drawn uniformly from [initLow, initHigh) in
// unconstrained space.
const (
	initLow  = -2.0
	initHigh = 2.0
)

// Trace holds per-draw diagnostics. Rows follow the draws: adaptation steps
// first when they are kept, then the results.
type Trace struct {
	// StepSize is the step size each transition used, [draws, chains].
	StepSize *tensor.Dense
	// AcceptProb is each transition's acceptance probability, [draws, chains].
	AcceptProb *tensor.Dense
	// TargetLogProb is the unconstrained target at each draw, [draws, chains].
	TargetLogProb *tensor.Dense
	// InverseMassMatrix is the diagonal each transition used,
	// [draws, chains, dim].
	InverseMassMatrix *tensor.Dense
}

// Result is the output of WindowedAdaptive.
type Result struct {
	// Draws maps each free component name to its constrained draws, shaped
	// [draws, chains, component shape...].
	Draws *nest.OrderedMap
	Trace Trace
	// Params holds each chain's parameters after adaptation.
	Params []Params
	// Schedule is the window layout of the adaptation.
	Schedule Schedule
}

// layout maps a flat state vector onto per-component tensors.
type layout struct {
	shapes [][]int
	sizes  []int
	dim    int
}

func newLayout(parts []*tensor.Dense) layout {
	var l layout
	for _, p := range parts {
		l.shapes = append(l.shapes, p.Shape())
		l.sizes = append(l.sizes, len(p.Data()))
		l.dim += len(p.Data())
	}
	return l
}

func (l layout) split(x []float64) ([]*tensor.Dense, error) {
	out := make([]*tensor.Dense, len(l.shapes))
	off := 0
	for k, dims := range l.shapes {
		t, err := tensor.New(dims, x[off:off+l.sizes[k]])
		if err != nil {
			return nil, err
		}
		out[k] = t
		off += l.sizes[k]
	}
	return out, nil
}

// problem is a pinned model seen as a density over a flat unconstrained
// vector.
type problem struct {
	model *joint.Pinned
	bij   *joint.Bijector
	names []string
	lay   layout
}

// newProblem learns the free component shapes from one draw of the model.
func newProblem(model *joint.Pinned, seed samplers.Seed) (*problem, error) {
	free, err := model.SampleFlat(nil, seed)
	if err != nil {
		return nil, err
	}
	p := &problem{
		model: model,
		bij:   model.DefaultEventSpaceBijector(),
		names: model.FreeNames(),
		lay:   newLayout(free),
	}
	if p.lay.dim == 0 {
		return nil, mcmcErrorf("WindowedAdaptive", ErrTarget, "model has no free components")
	}
	return p, nil
}

// logProb is the unnormalized log density at bij.Forward(x) plus the
// forward log-det-Jacobian at x.
func (p *problem) logProb(x []float64) (float64, error) {
	xs, err := p.lay.split(x)
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "%v", err)
	}
	ys, err := p.bij.ForwardFlat(xs)
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "%v", err)
	}
	lp, err := p.model.UnnormalizedLogProbFlat(ys)
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "%v", err)
	}
	ldj, err := p.bij.ForwardLogDetJacobianFlat(xs)
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "%v", err)
	}
	a, err := lp.Item()
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "log density must be scalar, got shape %v", lp.Shape())
	}
	b, err := ldj.Item()
	if err != nil {
		return 0, mcmcErrorf("target", ErrTarget, "log-det-Jacobian must be scalar, got shape %v", ldj.Shape())
	}
	return a + b, nil
}

// constrained maps x onto the support, one tensor per free component.
func (p *problem) constrained(x []float64) ([]*tensor.Dense, error) {
	xs, err := p.lay.split(x)
	if err != nil {
		return nil, err
	}
	return p.bij.ForwardFlat(xs)
}

// run holds the shared output buffers of one sampling run. Chains write
// disjoint index ranges.
type run struct {
	prob    *problem
	kernel  Kernel
	cfg     Config
	sched   Schedule
	logger  *slog.Logger
	metrics *Metrics
	rows    int

	draws         [][]float64
	stepSize      []float64
	acceptProb    []float64
	targetLogProb []float64
	invMass       []float64
	params        []Params
}

func newRun(prob *problem, kernel Kernel, o options, sched Schedule) *run {
	rows := o.cfg.NumResults
	if !o.cfg.DiscardTuning {
		rows += sched.NumAdaptation()
	}
	n := rows * o.cfg.NumChains
	r := &run{
		prob:          prob,
		kernel:        kernel,
		cfg:           o.cfg,
		sched:         sched,
		logger:        o.logger,
		metrics:       o.metrics,
		rows:          rows,
		stepSize:      make([]float64, n),
		acceptProb:    make([]float64, n),
		targetLogProb: make([]float64, n),
		invMass:       make([]float64, n*prob.lay.dim),
		params:        make([]Params, o.cfg.NumChains),
	}
	for _, size := range prob.lay.sizes {
		r.draws = append(r.draws, make([]float64, n*size))
	}
	return r
}

// WindowedAdaptive samples the free components of model with kernel,
// tuning the step size and the diagonal inverse mass matrix over the
// windows of NewSchedule(NumAdaptationSteps).
//
// Stages:
//   - learn the free component shapes from one draw of the model;
//   - per chain, draw Uniform(-2, 2) initial states in unconstrained space
//     until the target is finite (MaxInitAttempts);
//   - run the chains concurrently, adapting then sampling;
//   - map every kept state onto the support.
//
// Errors: ErrInvalidConfig for a bad configuration; ErrInitFailed when a
// chain finds no finite initial state; ErrTarget when the target cannot
// be evaluated; kernel errors; ctx.Err() after cancellation.
func WindowedAdaptive(ctx context.Context, model *joint.Pinned, kernel Kernel, opts ...Option) (*Result, error) {
	const op = "WindowedAdaptive"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil || kernel == nil {
		return nil, mcmcErrorf(op, ErrInvalidConfig, "nil model or kernel")
	}

	seeds := samplers.NewSeed(o.cfg.Seed).Split(o.cfg.NumChains + 1)
	prob, err := newProblem(model, seeds[o.cfg.NumChains])
	if err != nil {
		return nil, mcmcErrorf(op, err, "")
	}
	sched := NewSchedule(o.cfg.NumAdaptationSteps)
	r := newRun(prob, kernel, o, sched)

	first, slow, last := sched.Windows()
	o.logger.Info("mcmc: sampling",
		"model", model.Joint().Name(), "free", prob.names, "dim", prob.lay.dim,
		"chains", o.cfg.NumChains, "adaptation", sched.NumAdaptation(), "results", o.cfg.NumResults,
		"first_window", first, "slow_window", slow, "last_window", last)

	g, gctx := errgroup.WithContext(ctx)
	for c := range o.cfg.NumChains {
		g.Go(func() error { return r.chain(gctx, c, seeds[c]) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := r.result()
	if err != nil {
		return nil, mcmcErrorf(op, err, "")
	}
	for c, p := range res.Params {
		o.logger.Info("mcmc: chain tuned", "chain", c, "step_size", p.StepSize)
	}
	return res, nil
}

// initialize draws unconstrained states until the target is finite.
func (r *run) initialize(c int, seed samplers.Seed) ([]float64, float64, error) {
	stream := samplers.NewStream(seed)
	for attempt := 1; attempt <= r.cfg.MaxInitAttempts; attempt++ {
		u, err := samplers.Uniform([]int{r.prob.lay.dim}, initLow, initHigh, stream.Next())
		if err != nil {
			return nil, 0, err
		}
		x := u.Data()
		lp, err := r.prob.logProb(x)
		if err != nil {
			return nil, 0, err
		}
		r.metrics.observeInitAttempt()
		if !math.IsInf(lp, 0) && !math.IsNaN(lp) {
			r.logger.Debug("mcmc: chain initialized", "chain", c, "attempts", attempt, "target_log_prob", lp)
			return x, lp, nil
		}
	}
	return nil, 0, mcmcErrorf("WindowedAdaptive", ErrInitFailed, "chain %d after %d attempts", c, r.cfg.MaxInitAttempts)
}

// chain runs one chain through adaptation and sampling.
func (r *run) chain(ctx context.Context, c int, seed samplers.Seed) error {
	const op = "WindowedAdaptive"
	seeds := seed.Split(2)
	x, lp, err := r.initialize(c, seeds[0])
	if err != nil {
		return err
	}

	dim := r.prob.lay.dim
	params := Params{StepSize: r.cfg.InitStepSize, InverseMassMatrix: make([]float64, dim)}
	for i := range params.InverseMassMatrix {
		params.InverseMassMatrix[i] = 1
	}
	da := NewDualAveraging(r.cfg.InitStepSize, r.cfg.TargetAcceptProb)
	rv := NewRunningVariance(dim)
	stream := samplers.NewStream(seeds[1])
	nAdapt := r.sched.NumAdaptation()

	row := 0
	for step := 0; step < nAdapt+r.cfg.NumResults; step++ {
		if err := ctx.Err(); err != nil {
			return mcmcErrorf(op, err, "chain %d", c)
		}
		used := params
		next, info, err := r.kernel.OneStep(ctx, x, lp, r.prob.logProb, used, stream.Next())
		if err != nil {
			return mcmcErrorf(op, err, "chain %d step %d", c, step)
		}
		x, lp = next, info.TargetLogProb
		phase := r.sched.Phase(step)
		r.metrics.observeStep(c, phase, info, used.StepSize)

		if phase != PhaseSampling {
			params.StepSize = da.Update(info.AcceptProb)
			if phase == PhaseSlow {
				rv.Update(x)
			}
			if r.sched.ClosesSlowWindow(step) {
				params.InverseMassMatrix = rv.Regularized()
				rv.Reset()
				da.Restart(params.StepSize)
				r.metrics.observeWindowClosed()
				r.logger.Debug("mcmc: slow window closed",
					"chain", c, "window", r.sched.SlowWindow(step), "step", step, "step_size", params.StepSize)
			}
			if step == nAdapt-1 {
				params.StepSize = da.FinalStepSize()
			}
		}

		if phase == PhaseSampling || !r.cfg.DiscardTuning {
			if err := r.record(row, c, x, info, used); err != nil {
				return mcmcErrorf(op, err, "chain %d step %d", c, step)
			}
			row++
		}
	}
	r.params[c] = params.clone()
	return nil
}

// record stores one kept state and its diagnostics.
func (r *run) record(row, c int, x []float64, info StepInfo, used Params) error {
	i := row*r.cfg.NumChains + c
	r.stepSize[i] = used.StepSize
	r.acceptProb[i] = info.AcceptProb
	r.targetLogProb[i] = info.TargetLogProb
	dim := r.prob.lay.dim
	copy(r.invMass[i*dim:(i+1)*dim], used.InverseMassMatrix)

	ys, err := r.prob.constrained(x)
	if err != nil {
		return err
	}
	for k, y := range ys {
		size := r.prob.lay.sizes[k]
		copy(r.draws[k][i*size:(i+1)*size], y.Data())
	}
	return nil
}

func (r *run) result() (*Result, error) {
	chains := r.cfg.NumChains
	draws := nest.NewOrderedMap()
	for k, name := range r.prob.names {
		dims := append([]int{r.rows, chains}, r.prob.lay.shapes[k]...)
		t, err := tensor.New(dims, r.draws[k])
		if err != nil {
			return nil, err
		}
		draws.Set(name, t)
	}

	perDraw := []int{r.rows, chains}
	var trace Trace
	var err error
	if trace.StepSize, err = tensor.New(perDraw, r.stepSize); err != nil {
		return nil, err
	}
	if trace.AcceptProb, err = tensor.New(perDraw, r.acceptProb); err != nil {
		return nil, err
	}
	if trace.TargetLogProb, err = tensor.New(perDraw, r.targetLogProb); err != nil {
		return nil, err
	}
	if trace.InverseMassMatrix, err = tensor.New([]int{r.rows, chains, r.prob.lay.dim}, r.invMass); err != nil {
		return nil, err
	}
	return &Result{Draws: draws, Trace: trace, Params: r.params, Schedule: r.sched}, nil
}
