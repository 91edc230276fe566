package oracle

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rotisserie/eris"

	"SmartRental/internal/model"
)

// StochasticOracle is the placeholder used when no trained model is deployed:
// it draws a price uniformly from [Min, Max).
type StochasticOracle struct {
	Min, Max float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewStochasticOracle creates a placeholder oracle. A zero seed draws a random one.
func NewStochasticOracle(min, max float64, seed uint64) (*StochasticOracle, error) {
	if min <= 0 || max <= min {
		return nil, eris.Errorf("oracle: invalid stochastic price range [%v, %v)", min, max)
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &StochasticOracle{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (o *StochasticOracle) Name() string { return KindStochastic }

func (o *StochasticOracle) Predict(ctx context.Context, _ model.PropertyFeatures) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "oracle: stochastic predict")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Min + o.rng.Float64()*(o.Max-o.Min), nil
}
