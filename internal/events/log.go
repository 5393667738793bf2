package events

import (
	"context"

	"go.uber.org/zap"
)

var _ Emitter = (*LogEmitter)(nil)

// LogEmitter writes lifecycle events to the log. It stands in when no
// broker is configured and keeps the event trail visible either way.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(ctx context.Context, event PaymentEvent) error {
	zap.L().Info("Payment event",
		zap.String("type", string(event.Type)),
		zap.String("payment_id", event.PaymentId),
		zap.Int64("user_id", event.UserId),
		zap.String("asset", event.AssetCode),
		zap.String("tier", event.Tier),
		zap.String("tx_hash", event.TxHash),
		zap.Time("timestamp", event.Timestamp))
	return nil
}

func (e *LogEmitter) Close() error {
	return nil
}
