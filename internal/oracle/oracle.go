package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"SmartRental/internal/model"
)

var (
	// ErrModelUnavailable means the model could not be reached or loaded.
	ErrModelUnavailable = errors.New("price model unavailable")
	// ErrPredictionFailure means the model answered but produced no usable prediction.
	ErrPredictionFailure = errors.New("price prediction failed")
)

// Oracle predicts a nightly price for a property.
type Oracle interface {
	Predict(ctx context.Context, features model.PropertyFeatures) (float64, error)
	Name() string
}

// Kinds accepted by New.
const (
	KindStochastic = "stochastic"
	KindRemote     = "remote"
)

// Options selects and configures an oracle implementation.
type Options struct {
	Kind string

	// stochastic
	MinPrice float64
	MaxPrice float64
	Seed     uint64

	// remote
	BaseURL    string
	APIKey     string
	Proxy      string
	Timeout    time.Duration
	MaxRetries int

	// prediction cache, remote only
	RedisAddr string
	CacheTTL  time.Duration
}

// New builds the oracle named by opts.Kind. A remote oracle is wrapped in a
// Redis-backed cache when RedisAddr is set.
func New(opts Options) (Oracle, error) {
	switch opts.Kind {
	case "", KindStochastic:
		o, err := NewStochasticOracle(opts.MinPrice, opts.MaxPrice, opts.Seed)
		if err != nil {
			return nil, err
		}
		return o, nil
	case KindRemote:
		if opts.BaseURL == "" {
			return nil, eris.New("oracle: remote oracle requires base_url")
		}
		var o Oracle = NewRemoteOracle(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Timeout, opts.MaxRetries)
		if opts.RedisAddr != "" {
			o = NewCachedOracle(o, NewRedisCache(opts.RedisAddr), opts.CacheTTL)
			zap.L().Info("oracle predictions cached in redis", zap.String("addr", opts.RedisAddr))
		}
		return o, nil
	}
	return nil, eris.Errorf("oracle: unknown kind %q", opts.Kind)
}

// PredictError carries the failure kind of a prediction together with its cause.
type PredictError struct {
	Kind error
	Op   string
	Err  error
}

func (e *PredictError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *PredictError) Is(target error) bool { return target == e.Kind }

func (e *PredictError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	return &PredictError{Kind: ErrModelUnavailable, Op: op, Err: err}
}

func failed(op string, err error) error {
	return &PredictError{Kind: ErrPredictionFailure, Op: op, Err: err}
}
