package main

import (
	"go.uber.org/zap"

	"SmartRental/internal/config"
	"SmartRental/internal/oracle"
	"SmartRental/internal/recorder"
	"SmartRental/internal/strategy"
)

func initEngine(c *config.Config) (*strategy.Engine, error) {
	o, err := oracle.New(c.OracleOptions())
	if err != nil {
		return nil, err
	}
	zap.L().Debug("price oracle ready", zap.String("oracle", o.Name()))
	return strategy.NewEngine(o, c.Solver), nil
}

// initRecorder falls back to a no-op recorder so a broken database never
// blocks an evaluation.
func initRecorder(c *config.Config) recorder.Recorder {
	if c.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(c.Database.SQLitePath)
	if err != nil {
		zap.L().Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}
