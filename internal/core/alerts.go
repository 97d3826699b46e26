package core

import (
	"context"

	"go.uber.org/zap"
)

// LogAlertSink writes low-stock alerts to the structured log. The kitchen
// display reads the low-stock snapshot over HTTP; the log is the durable
// trail of threshold crossings.
type LogAlertSink struct {
	log *zap.Logger
}

func NewLogAlertSink(log *zap.Logger) *LogAlertSink {
	return &LogAlertSink{log: log}
}

func (s *LogAlertSink) LowStock(_ context.Context, alert LowStockAlert) {
	s.log.Warn("inventory item below par",
		zap.Int("item_id", alert.ItemID),
		zap.String("item", alert.ItemName),
		zap.String("quantity", alert.Quantity.String()),
		zap.String("par_level", alert.ParLevel.String()),
	)
}
