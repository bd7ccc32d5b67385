// internal/repository/refund_repository_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-orchestrator/internal/models"
)

var refundRows = []string{
	"id", "refund_id", "payment_id", "merchant_id", "attempt_id", "connector",
	"connector_transaction_id", "connector_refund_id", "total_amount",
	"refund_amount", "currency", "refund_status", "refund_reason", "refund_error",
	"sent_to_gateway", "created_at", "modified_at",
}

func TestRefundRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO refunds").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewRefundRepository(db)
	now := time.Now()
	err = repo.Create(context.Background(), &models.Refund{
		ID:           "id-1",
		RefundID:     "ref_1",
		PaymentID:    "pay_1",
		MerchantID:   "mer_1",
		AttemptID:    "att_1",
		Connector:    "stripe",
		TotalAmount:  1000,
		RefundAmount: 500,
		Currency:     "USD",
		RefundStatus: models.RefundStatusPending,
		CreatedAt:    now,
		ModifiedAt:   now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRepositoryGetByRefundID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(refundRows).AddRow(
		"id-1", "ref_1", "pay_1", "mer_1", "att_1", "stripe",
		"pi_123", "re_123", int64(1000),
		int64(500), "USD", "succeeded", "requested_by_customer", "",
		true, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM refunds WHERE refund_id").
		WithArgs("ref_1").
		WillReturnRows(rows)

	repo := NewRefundRepository(db)
	refund, err := repo.GetByRefundID(context.Background(), "ref_1")
	require.NoError(t, err)
	require.NotNil(t, refund)

	assert.Equal(t, models.RefundStatusSucceeded, refund.RefundStatus)
	assert.Equal(t, int64(500), refund.RefundAmount)
	assert.True(t, refund.SentToGateway)
	assert.Equal(t, "re_123", refund.ConnectorRefundID)
}

func TestRefundRepositoryGetByRefundIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM refunds WHERE refund_id").
		WithArgs("ref_missing").
		WillReturnRows(sqlmock.NewRows(refundRows))

	repo := NewRefundRepository(db)
	refund, err := repo.GetByRefundID(context.Background(), "ref_missing")
	require.NoError(t, err)
	assert.Nil(t, refund)
}

func TestRefundRepositoryListByPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(refundRows).
		AddRow("id-1", "ref_1", "pay_1", "mer_1", "att_1", "stripe",
			"pi_123", "re_1", int64(1000), int64(300), "USD", "succeeded", "", "", true, now, now).
		AddRow("id-2", "ref_2", "pay_1", "mer_1", "att_1", "stripe",
			"pi_123", "re_2", int64(1000), int64(200), "USD", "pending", "", "", true, now, now)

	mock.ExpectQuery("SELECT (.+) FROM refunds WHERE payment_id").
		WithArgs("pay_1").
		WillReturnRows(rows)

	repo := NewRefundRepository(db)
	refunds, err := repo.ListByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Len(t, refunds, 2)
}

func TestRefundRepositoryUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE refunds").
		WithArgs("re_123", "succeeded", "", true, sqlmock.AnyArg(), "ref_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRefundRepository(db)
	err = repo.Update(context.Background(), &models.Refund{
		RefundID:          "ref_1",
		ConnectorRefundID: "re_123",
		RefundStatus:      models.RefundStatusSucceeded,
		SentToGateway:     true,
		ModifiedAt:        time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
