package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/Spok95/shopfloor/internal/bot"
	"github.com/Spok95/shopfloor/internal/config"
	"github.com/Spok95/shopfloor/internal/infra/mes"
	"github.com/Spok95/shopfloor/internal/metrics"
	"github.com/Spok95/shopfloor/internal/workflow"
)

func newBackend(cfg config.Config, log *slog.Logger, m *metrics.Metrics) *mes.Client {
	return mes.New(mes.Options{
		BaseURL:          cfg.Backend.BaseURL,
		Token:            cfg.Backend.Token,
		Timeout:          cfg.Backend.Timeout,
		FailureThreshold: cfg.Backend.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Backend.Breaker.OpenTimeout,
		Log:              log,
		Metrics:          m,
	})
}

// newMetrics при выключенных метриках регистрирует в отдельный реестр, который никто не отдаёт.
func newMetrics(cfg config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.New(prometheus.NewRegistry())
	}
	return metrics.New(nil)
}

func workcenterTypes(names []string) []workflow.WorkcenterType {
	out := make([]workflow.WorkcenterType, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, workflow.WorkcenterType(n))
		}
	}
	return out
}

func botOptions(cfg config.Config) bot.Options {
	return bot.Options{
		AdminChatID:       cfg.Telegram.AdminChatID,
		WorkcenterTypes:   workcenterTypes(cfg.Workflow.WorkcenterTypes),
		OrderStatus:       cfg.Workflow.OrderStatus,
		LowStockThreshold: decimal.NewFromFloat(cfg.Workflow.LowStockThreshold),
		HistoryLimit:      cfg.Workflow.HistoryLimit,
		RequestTimeout:    cfg.Backend.Timeout,
	}
}
