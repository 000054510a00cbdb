package regression

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// FitResult carries the fitted coefficients and their Wald standard errors.
type FitResult struct {
	Names   []string
	Coeffs  []float64
	StdErrs []float64
	LogLik  float64
}

// Fit estimates the logistic model by maximum likelihood using BFGS with an
// analytic gradient, then derives standard errors from the observed
// information matrix. A model that fails to converge is a hard error; the
// published table cannot be reproduced from a partial fit.
func Fit(ctx context.Context, design *Design, logger *slog.Logger) (*FitResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	n, p := design.X.Dims()
	if n <= p {
		return nil, fmt.Errorf("underdetermined model: %d observations for %d terms", n, p)
	}

	logger.InfoContext(ctx, "fitting logistic model",
		"observations", n,
		"terms", p,
	)

	problem := optimize.Problem{
		Func: func(beta []float64) float64 {
			return negLogLik(design, beta)
		},
		Grad: func(grad, beta []float64) {
			negLogLikGrad(design, beta, grad)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   500,
	}

	initial := make([]float64, p)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if err != nil {
		return nil, fmt.Errorf("minimize negative log-likelihood: %w", err)
	}
	if err := result.Status.Err(); err != nil {
		return nil, fmt.Errorf("optimizer did not converge: %w", err)
	}

	stdErrs, err := waldStdErrs(design, result.X)
	if err != nil {
		return nil, fmt.Errorf("compute standard errors: %w", err)
	}

	fit := &FitResult{
		Names:   design.Names,
		Coeffs:  result.X,
		StdErrs: stdErrs,
		LogLik:  -result.F,
	}

	logger.InfoContext(ctx, "logistic model fitted",
		"log_likelihood", fit.LogLik,
		"func_evaluations", result.Stats.FuncEvaluations,
	)

	return fit, nil
}

// negLogLik is the total negative log-likelihood of the logistic model,
// computed in the overflow-safe form sum(log(1+exp(eta)) - y*eta).
func negLogLik(design *Design, beta []float64) float64 {
	n, _ := design.X.Dims()

	nll := 0.0
	for i := 0; i < n; i++ {
		eta := linearPredictor(design, i, beta)
		nll += logOnePlusExp(eta) - design.Y[i]*eta
	}
	return nll
}

// negLogLikGrad writes X'(p - y) into grad.
func negLogLikGrad(design *Design, beta, grad []float64) {
	n, p := design.X.Dims()

	for j := 0; j < p; j++ {
		grad[j] = 0
	}
	for i := 0; i < n; i++ {
		eta := linearPredictor(design, i, beta)
		resid := sigmoid(eta) - design.Y[i]
		for j := 0; j < p; j++ {
			grad[j] += design.X.At(i, j) * resid
		}
	}
}

// waldStdErrs inverts the observed information matrix X'WX, W = diag(p(1-p)),
// evaluated at the MLE.
func waldStdErrs(design *Design, beta []float64) ([]float64, error) {
	n, p := design.X.Dims()

	info := mat.NewDense(p, p, nil)
	for i := 0; i < n; i++ {
		prob := sigmoid(linearPredictor(design, i, beta))
		w := prob * (1 - prob)
		for j := 0; j < p; j++ {
			xj := design.X.At(i, j)
			if xj == 0 {
				continue
			}
			for k := j; k < p; k++ {
				info.Set(j, k, info.At(j, k)+w*xj*design.X.At(i, k))
			}
		}
	}
	// Mirror the upper triangle.
	for j := 0; j < p; j++ {
		for k := j + 1; k < p; k++ {
			info.Set(k, j, info.At(j, k))
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(info); err != nil {
		return nil, fmt.Errorf("information matrix is singular: %w", err)
	}

	stdErrs := make([]float64, p)
	for j := 0; j < p; j++ {
		v := inv.At(j, j)
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("negative variance for term %q", design.Names[j])
		}
		stdErrs[j] = math.Sqrt(v)
	}
	return stdErrs, nil
}

func linearPredictor(design *Design, row int, beta []float64) float64 {
	_, p := design.X.Dims()
	eta := 0.0
	for j := 0; j < p; j++ {
		eta += design.X.At(row, j) * beta[j]
	}
	return eta
}

func sigmoid(eta float64) float64 {
	if eta >= 0 {
		return 1 / (1 + math.Exp(-eta))
	}
	e := math.Exp(eta)
	return e / (1 + e)
}

// logOnePlusExp computes log(1+exp(x)) without overflowing for large x.
func logOnePlusExp(x float64) float64 {
	if x > 35 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
