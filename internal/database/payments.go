package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"
	"github.com/i92tele/my-1stproject-sub000/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SavePayment persists a freshly created payment request. The insert is a
// single atomic statement; a duplicate payment id is rejected before any
// write happens.
func (s *Service) SavePayment(ctx context.Context, p *models.PaymentRequest) error {
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicatePayment, p.PaymentId).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate payment id detected, skipping",
			zap.String("payment_id", p.PaymentId))
		return fmt.Errorf("%w: %s", store.ErrDuplicatePayment, p.PaymentId)
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for duplicate payment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertPayment,
		p.PaymentId, p.UserId, string(p.AssetCode), p.Tier,
		p.ExpectedAmountCrypto.String(), p.ExpectedAmountUSD.String(),
		p.PayToAddress, string(p.AttributionMethod), p.Memo,
		p.RequiredConfirmations, string(p.Status),
		p.CreatedAt.UTC(), p.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	zap.L().Info("Payment request persisted",
		zap.String("payment_id", p.PaymentId),
		zap.Int64("user_id", p.UserId),
		zap.String("asset", string(p.AssetCode)),
		zap.String("expected_crypto", p.ExpectedAmountCrypto.String()),
		zap.String("expected_usd", p.ExpectedAmountUSD.String()))

	return nil
}

// GetPayment loads one payment request by id.
func (s *Service) GetPayment(ctx context.Context, paymentId string) (*models.PaymentRequest, error) {
	row := s.db.QueryRowContext(ctx, queryGetPayment, paymentId)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", store.ErrPaymentNotFound, paymentId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", paymentId, err)
	}
	return p, nil
}

// ListPaymentsByStatus returns all payments in the given state, oldest first.
func (s *Service) ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryListPaymentsByStatus, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var payments []*models.PaymentRequest
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return payments, nil
}

// MarkCompleted performs the pending -> completed transition. The WHERE
// clause re-checks status so a racing caller cannot complete a terminal row;
// the caller learns about the race through the false return.
func (s *Service) MarkCompleted(ctx context.Context, params store.MarkCompletedParams) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryMarkPaymentCompleted,
		params.DetectedTxHash, params.DetectedAmount.String(), params.DetectedAt.UTC(),
		params.PaymentId)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment completed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Completed transition skipped, payment no longer pending",
			zap.String("payment_id", params.PaymentId))
		return false, nil
	}

	zap.L().Info("Payment completed",
		zap.String("payment_id", params.PaymentId),
		zap.String("tx_hash", params.DetectedTxHash),
		zap.String("detected_amount", params.DetectedAmount.String()))

	return true, nil
}

// MarkExpired performs the pending -> expired transition.
func (s *Service) MarkExpired(ctx context.Context, paymentId string) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryMarkPaymentExpired, paymentId)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment expired: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	zap.L().Info("Payment expired", zap.String("payment_id", paymentId))
	return true, nil
}

// ExpireOverdue sweeps every overdue pending payment in one statement.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryExpireOverduePayments, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue payments: %w", err)
	}

	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	if expired > 0 {
		zap.L().Info("Expired overdue payments", zap.Int64("count", expired))
	}

	return expired, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*models.PaymentRequest, error) {
	var p models.PaymentRequest
	var assetCode, attribution, status string
	var expectedCryptoStr, expectedUsdStr string
	var detectedTxHash, detectedAmount sql.NullString
	var detectedAt sql.NullTime

	err := row.Scan(&p.PaymentId, &p.UserId, &assetCode, &p.Tier,
		&expectedCryptoStr, &expectedUsdStr, &p.PayToAddress, &attribution,
		&p.Memo, &p.RequiredConfirmations, &status,
		&detectedTxHash, &detectedAmount, &detectedAt,
		&p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}

	p.AssetCode = models.AssetCode(assetCode)
	p.AttributionMethod = models.AttributionMethod(attribution)
	p.Status = models.PaymentStatus(status)

	p.ExpectedAmountCrypto, err = decimal.NewFromString(expectedCryptoStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expected_amount_crypto '%s': %w", expectedCryptoStr, err)
	}
	p.ExpectedAmountUSD, err = decimal.NewFromString(expectedUsdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expected_amount_usd '%s': %w", expectedUsdStr, err)
	}

	if detectedTxHash.Valid {
		p.DetectedTxHash = detectedTxHash.String
	}
	if detectedAmount.Valid && detectedAmount.String != "" {
		p.DetectedAmount, err = decimal.NewFromString(detectedAmount.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse detected_amount '%s': %w", detectedAmount.String, err)
		}
	}
	if detectedAt.Valid {
		p.DetectedAt = detectedAt.Time
	}

	return &p, nil
}
