package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartRental/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, model.DefaultAssumptions(), cfg.Assumptions)
	assert.Equal(t, model.DefaultSolverOptions(), cfg.Solver)
	assert.Equal(t, "stochastic", cfg.Oracle.Kind)
	assert.Equal(t, 50.0, cfg.Oracle.MinPrice)
	assert.Equal(t, 300.0, cfg.Oracle.MaxPrice)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "0 0 8 * * 1", cfg.Schedule.WatchCron)
	assert.Equal(t, "data/smartrental.db", cfg.Database.SQLitePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
assumptions:
  occupancy_ratio: 0.55
  horizon_years: 15
  terminal:
    mode: final_period
    resale_at_cost: true
solver:
  max_iterations: 40
oracle:
  kind: remote
  base_url: http://model:9000
  timeout: 3s
watchlist:
  - name: centro
    nightly_price: 120
    costs:
      property_cost: 180000
      furnishing_cost: 15000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.55, cfg.Assumptions.OccupancyRatio)
	assert.Equal(t, 0.5, cfg.Assumptions.OperatingCostRatio, "unset keys keep defaults")
	assert.Equal(t, 15, cfg.Assumptions.HorizonYears)
	assert.Equal(t, model.TerminalFinalPeriod, cfg.Assumptions.Terminal.Mode)
	assert.True(t, cfg.Assumptions.Terminal.ResaleAtCost)
	assert.Equal(t, 40, cfg.Solver.MaxIterations)
	assert.Equal(t, 1e-6, cfg.Solver.Tolerance)
	assert.Equal(t, 3*time.Second, cfg.Oracle.Timeout)
	require.Len(t, cfg.Watchlist, 1)
	assert.Equal(t, 195000.0, cfg.Watchlist[0].Costs.InitialOutlay())
	require.NoError(t, cfg.ValidateWatch())

	opts := cfg.OracleOptions()
	assert.Equal(t, "remote", opts.Kind)
	assert.Equal(t, "http://model:9000", opts.BaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TARGET_RATE", "0.08")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ORACLE_BASE_URL", "http://env-model")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.08, cfg.Assumptions.TargetRate)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "http://env-model", cfg.Oracle.BaseURL)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "assumptions: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero horizon", func(c *Config) { c.Assumptions.HorizonYears = 0 }},
		{"unknown terminal", func(c *Config) { c.Assumptions.Terminal.Mode = "sometimes" }},
		{"zero iterations", func(c *Config) { c.Solver.MaxIterations = 0 }},
		{"zero tolerance", func(c *Config) { c.Solver.Tolerance = 0 }},
		{"guess at -1", func(c *Config) { c.Solver.InitialGuess = -1 }},
		{"inverted price range", func(c *Config) { c.Oracle.MinPrice = 400 }},
		{"remote without url", func(c *Config) { c.Oracle.Kind = "remote" }},
		{"unknown oracle", func(c *Config) { c.Oracle.Kind = "crystal-ball" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateWatch_RequiresEntries(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateWatch())

	cfg.Watchlist = []model.WatchedProperty{{NightlyPrice: 100}}
	assert.Error(t, cfg.ValidateWatch())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "chatty"}))
}
