package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"clmm-backtest/internal/domain"
)

// Defaults for ARGARCHOptions.
const (
	DefaultMinObservations = 30
	DefaultMaxIterations   = 5000
)

// ARGARCHOptions configures the AR(1)-GARCH(1,1) fit.
type ARGARCHOptions struct {
	MinObservations int // returns required before fitting
	MaxIterations   int // Nelder-Mead iteration cap
}

// ARGARCH is an AR(1) mean model with GARCH(1,1) errors, fitted by Gaussian
// maximum likelihood:
//
//	r_t      = mu + phi*r_{t-1} + e_t
//	sigma2_t = omega + a*e_{t-1}^2 + b*sigma2_{t-1}
//
// The optimizer runs serially so fits are reproducible.
type ARGARCH struct {
	opts ARGARCHOptions
}

// NewARGARCH creates a forecaster, filling zero options with defaults.
func NewARGARCH(opts ARGARCHOptions) *ARGARCH {
	if opts.MinObservations <= 0 {
		opts.MinObservations = DefaultMinObservations
	}
	if opts.MinObservations < 3 {
		opts.MinObservations = 3
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &ARGARCH{opts: opts}
}

// Fit holds estimated parameters and the filtered state at the last observation.
type Fit struct {
	Mu            float64
	Phi           float64
	Omega         float64
	Alpha         float64
	Beta          float64
	LogLikelihood float64

	lastReturn   float64
	lastResidual float64
	lastVariance float64
}

// Forecast returns the one-step-ahead mean and variance.
func (f *Fit) Forecast() domain.Forecast {
	return domain.Forecast{
		Mean:     f.Mu + f.Phi*f.lastReturn,
		Variance: f.Omega + f.Alpha*f.lastResidual*f.lastResidual + f.Beta*f.lastVariance,
	}
}

// Forecast fits the model on history and forecasts the next return.
func (m *ARGARCH) Forecast(history []float64) (domain.Forecast, error) {
	fit, err := m.Fit(history)
	if err != nil {
		return domain.Forecast{}, err
	}
	fc := fit.Forecast()
	if !(fc.Variance > 0) || math.IsInf(fc.Variance, 0) || math.IsNaN(fc.Mean) {
		return domain.Forecast{}, fmt.Errorf("%w: forecast mean %v variance %v", ErrNoConvergence, fc.Mean, fc.Variance)
	}
	return fc, nil
}

// Fit estimates the model parameters on history.
func (m *ARGARCH) Fit(history []float64) (*Fit, error) {
	if len(history) < m.opts.MinObservations {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientHistory, len(history), m.opts.MinObservations)
	}
	for i, r := range history {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidHistory, i)
		}
	}

	x := history[:len(history)-1]
	y := history[1:]

	// OLS start values for the mean equation.
	alphaOLS, betaOLS := stat.LinearRegression(x, y, nil, false)
	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - alphaOLS - betaOLS*x[i]
	}
	backcast := stat.Variance(resid, nil)
	if !(backcast > 0) {
		return nil, fmt.Errorf("%w: zero residual variance", ErrNoConvergence)
	}
	sd := math.Sqrt(backcast)

	p := params{muCenter: alphaOLS, muScale: sd}
	start := []float64{
		0,
		math.Atanh(clampAbs(betaOLS, 0.95)),
		math.Log(backcast * 0.05),
		0,
		math.Log(0.90 / 0.05),
	}

	problem := optimize.Problem{
		Func: func(v []float64) float64 {
			mu, phi, omega, a, b, ok := p.unpack(v)
			if !ok {
				return math.Inf(1)
			}
			nll, _, _ := negLogLikelihood(x, y, mu, phi, omega, a, b, backcast)
			return nll
		},
	}
	settings := &optimize.Settings{
		MajorIterations: m.opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	res, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}
	switch res.Status {
	case optimize.Failure, optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return nil, fmt.Errorf("%w: status %s", ErrNoConvergence, res.Status)
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, fmt.Errorf("%w: objective %v", ErrNoConvergence, res.F)
	}

	mu, phi, omega, a, b, _ := p.unpack(res.X)
	nll, lastResid, lastVar := negLogLikelihood(x, y, mu, phi, omega, a, b, backcast)

	return &Fit{
		Mu:            mu,
		Phi:           phi,
		Omega:         omega,
		Alpha:         a,
		Beta:          b,
		LogLikelihood: -nll,
		lastReturn:    history[len(history)-1],
		lastResidual:  lastResid,
		lastVariance:  lastVar,
	}, nil
}

// params maps unconstrained optimizer coordinates onto a stationary model.
type params struct {
	muCenter float64
	muScale  float64
}

func (p params) unpack(v []float64) (mu, phi, omega, a, b float64, ok bool) {
	mu = p.muCenter + p.muScale*v[0]
	phi = math.Tanh(v[1])
	omega = math.Exp(v[2])
	e3, e4 := math.Exp(v[3]), math.Exp(v[4])
	d := 1 + e3 + e4
	a, b = e3/d, e4/d
	ok = !(math.IsInf(d, 0) || math.IsNaN(d) || omega == 0 || math.IsInf(omega, 0))
	return
}

// negLogLikelihood runs the variance recursion and returns the Gaussian
// negative log-likelihood with the last residual and its conditional variance.
func negLogLikelihood(x, y []float64, mu, phi, omega, a, b, backcast float64) (float64, float64, float64) {
	const log2Pi = 1.8378770664093453

	sigma2 := backcast
	prevResid2 := backcast
	nll := 0.0
	resid := 0.0

	for i := range y {
		sigma2 = omega + a*prevResid2 + b*sigma2
		if !(sigma2 > 0) {
			return math.Inf(1), 0, 0
		}
		resid = y[i] - mu - phi*x[i]
		nll += 0.5 * (log2Pi + math.Log(sigma2) + resid*resid/sigma2)
		prevResid2 = resid * resid
	}
	if math.IsNaN(nll) {
		return math.Inf(1), 0, 0
	}
	return nll, resid, sigma2
}

func clampAbs(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}
