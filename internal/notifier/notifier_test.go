package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartRental/internal/model"
	"SmartRental/internal/recorder"
)

func ptr(v float64) *float64 { return &v }

func sampleEvaluation() *model.Evaluation {
	return &model.Evaluation{
		Name:         "Ático <Centro>",
		NightlyPrice: 288,
		PriceSource:  model.PriceSourceInput,
		Assumptions:  model.DefaultAssumptions(),
		Costs:        model.InvestmentCosts{PropertyCost: 150000, FurnishingCost: 20000},
		CashFlows:    model.CashFlowSeries{-170000, 36792, 36792},
		IRR:          ptr(0.172264),
		NPVAtTarget:  ptr(56071.2),
		Verdict:      model.VerdictFavorable,
		Rating:       "strong",
	}
}

func TestMoneyAndPercent(t *testing.T) {
	assert.Equal(t, "170.000,00 €", Money(170000))
	assert.Equal(t, "36.792,50 €", Money(36792.5))
	assert.Equal(t, "17,23 %", Percent(0.172264))
	assert.Equal(t, "-14,73 %", Percent(-0.147284))
}

func TestFormatEvaluation(t *testing.T) {
	ev := sampleEvaluation()

	out := FormatEvaluation(ev, TelegramHTML)
	assert.Contains(t, out, "<b>SmartRental | Ático &lt;Centro&gt;</b>")
	assert.Contains(t, out, "17,23 %")
	assert.Contains(t, out, "Inversión favorable")

	plain := FormatEvaluation(ev, Plain)
	assert.Contains(t, plain, "Ático <Centro>")
	assert.NotContains(t, plain, "<b>")
}

func TestFormatEvaluation_Failure(t *testing.T) {
	ev := sampleEvaluation()
	ev.IRR = nil
	ev.Verdict = model.VerdictUndetermined
	ev.FailureKind = "DegenerateDerivative"
	ev.FailureMessage = "derivative vanished"

	out := FormatEvaluation(ev, Plain)
	assert.Contains(t, out, "Sin resultado: DegenerateDerivative")
	assert.NotContains(t, out, "TIR")
}

func TestFormatWatchSummary(t *testing.T) {
	failed := sampleEvaluation()
	failed.Name = "flat"
	failed.IRR = nil
	failed.FailureKind = "NoConvergence"
	evs := []*model.Evaluation{sampleEvaluation(), failed}

	html := FormatWatchSummary(evs, TelegramHTML)
	assert.Contains(t, html, "<b>SmartRental | revisión de cartera</b>")
	assert.Contains(t, html, "Ático &lt;Centro&gt;: TIR 17,23 %")
	assert.Contains(t, html, "flat: NoConvergence")

	plain := FormatWatchSummary(evs, Plain)
	assert.NotContains(t, plain, "<b>")
	assert.NotContains(t, plain, "&lt;")
	assert.Contains(t, plain, "Ático <Centro>: TIR 17,23 % → favorable")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "Sin evaluaciones registradas", FormatHistory(nil))

	out := FormatHistory([]recorder.Summary{
		{Name: "loft", EvaluatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), NightlyPrice: 120, IRR: ptr(0.08), Verdict: model.VerdictUnfavorable},
		{Name: "flat", NightlyPrice: 90, FailureKind: "NoConvergence"},
	})
	assert.Contains(t, out, "2026-03-01 09:00")
	assert.Contains(t, out, "8,00 %")
	assert.Contains(t, out, "NoConvergence")
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "hola"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_NotifyExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	tn.MaxRetries = 0
	err := tn.Notify(context.Background(), "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTelegramNotifier_Polling(t *testing.T) {
	var sent atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if r.URL.Query().Get("offset") == "0" {
				_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":5,"message":{"text":"/history"}}]}`))
				return
			}
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			sent.Add(1)
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	commands := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands <- cmd
			return "ok"
		})
		close(done)
	}()

	select {
	case cmd := <-commands:
		assert.Equal(t, "/history", cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("command not delivered")
	}
	assert.Eventually(t, func() bool { return sent.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
