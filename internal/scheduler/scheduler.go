package scheduler

import (
	"context"
	"html"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"SmartRental/internal/model"
	"SmartRental/internal/notifier"
	"SmartRental/internal/recorder"
	"SmartRental/internal/strategy"
	"SmartRental/internal/watchstate"
)

// Evaluator is satisfied by *strategy.Engine.
type Evaluator interface {
	Evaluate(ctx context.Context, req strategy.Request) (*model.Evaluation, error)
}

// Scheduler re-evaluates the watchlist on a cron schedule.
type Scheduler struct {
	Cron        *cron.Cron
	Engine      Evaluator
	Notifier    notifier.Notifier
	Recorder    recorder.Recorder
	State       *watchstate.Manager
	Watchlist   []model.WatchedProperty
	Assumptions model.EconomicAssumptions
	Concurrency int
	Style       notifier.Style // markup the Notifier expects
	Ctx         context.Context

	runMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, eng Evaluator, n notifier.Notifier, rec recorder.Recorder, state *watchstate.Manager) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Engine:      eng,
		Notifier:    n,
		Recorder:    rec,
		State:       state,
		Assumptions: model.DefaultAssumptions(),
		Concurrency: 4,
		Style:       notifier.TelegramHTML,
		Ctx:         ctx,
	}
}

// Register adds the watchlist job.
func (s *Scheduler) Register(watchCron string) error {
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return eris.Wrapf(err, "register watch task %q", watchCron)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	zap.L().Info("scheduler started", zap.Int("watchlist", len(s.Watchlist)))
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	zap.L().Info("scheduler stopped")
}

func (s *Scheduler) watchTask() {
	if _, err := s.RunOnce(s.Ctx); err != nil {
		zap.L().Error("watch run failed", zap.Error(err))
	}
}

// RunOnce evaluates every watched property, records each evaluation and
// notifies about verdict changes. Results keep watchlist order. Runs do not
// overlap.
func (s *Scheduler) RunOnce(ctx context.Context) ([]*model.Evaluation, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	log := zap.L().With(zap.String("component", "watch"))
	log.Info("running watchlist", zap.Int("properties", len(s.Watchlist)))

	results := make([]*model.Evaluation, len(s.Watchlist))
	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, w := range s.Watchlist {
		g.Go(func() error {
			features := w.Features
			ev, err := s.Engine.Evaluate(gctx, strategy.Request{
				Name:         w.Name,
				NightlyPrice: w.NightlyPrice,
				Features:     &features,
				Assumptions:  s.Assumptions,
				Costs:        w.Costs,
			})
			if err != nil {
				// Oracle failures are carried on the evaluation.
				log.Warn("watched property not priced", zap.String("name", w.Name), zap.Error(err))
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "watch run")
	}

	for _, ev := range results {
		if err := s.Recorder.RecordEvaluation(ctx, ev); err != nil {
			log.Error("record evaluation", zap.String("name", ev.Name), zap.Error(err))
		}
		if s.State == nil {
			continue
		}
		if change, changed := s.State.Observe(ev); changed {
			log.Info("verdict changed",
				zap.String("name", change.Name),
				zap.String("previous", string(change.Previous)),
				zap.String("current", string(change.Current)),
			)
			s.trySend(ctx, notifier.FormatEvaluation(ev, s.Style))
		}
	}
	if s.State != nil {
		s.State.FinishRun()
	}
	if len(results) > 0 {
		s.trySend(ctx, notifier.FormatWatchSummary(results, s.Style))
	}
	return results, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/watch":
		if _, err := s.RunOnce(ctx); err != nil {
			return "Error en la revisión: " + err.Error()
		}
		return ""
	case "/history":
		rows, err := s.Recorder.Recent(ctx, 10)
		if err != nil {
			return "Error leyendo el historial: " + err.Error()
		}
		return "<pre>" + html.EscapeString(notifier.FormatHistory(rows)) + "</pre>"
	default:
		return "Comandos disponibles:\n• /watch revisar la cartera\n• /history últimas evaluaciones"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, text); err != nil {
		zap.L().Error("send notification", zap.Error(err))
	}
}
