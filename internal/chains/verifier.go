package chains

import (
	"context"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"go.uber.org/zap"
)

var _ Verifier = (*AddressVerifier)(nil)

// AddressVerifier implements Verifier for any chain: it pulls recent
// transfers for the payment's deposit address through the provider rotation
// and applies the shared match rules. Per-chain differences live entirely in
// the providers.
type AddressVerifier struct {
	asset    models.AssetCode
	executor *Executor
	rules    MatchRules
}

func NewAddressVerifier(asset models.AssetCode, executor *Executor, rules MatchRules) *AddressVerifier {
	return &AddressVerifier{
		asset:    asset,
		executor: executor,
		rules:    rules,
	}
}

func (v *AddressVerifier) AssetCode() models.AssetCode {
	return v.asset
}

func (v *AddressVerifier) Verify(ctx context.Context, payment *models.PaymentRequest) (*Transaction, error) {
	txs, err := v.executor.FetchRecent(ctx, payment.PayToAddress)
	if err != nil {
		return nil, err
	}

	match := v.rules.FirstMatch(payment, txs)
	if match == nil {
		zap.L().Debug("No matching transfer yet",
			zap.String("payment_id", payment.PaymentId),
			zap.String("asset", string(v.asset)),
			zap.Int("transfers_checked", len(txs)))
		return nil, nil
	}

	zap.L().Info("Matching transfer found",
		zap.String("payment_id", payment.PaymentId),
		zap.String("asset", string(v.asset)),
		zap.String("tx_hash", match.Hash),
		zap.String("amount", match.Amount.String()),
		zap.Int64("confirmations", match.Confirmations))

	return match, nil
}
