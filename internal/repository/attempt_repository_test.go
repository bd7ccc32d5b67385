// internal/repository/attempt_repository_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"payment-orchestrator/internal/models"
)

var attemptRows = []string{
	"id", "payment_id", "merchant_id", "profile_id", "organization_id", "connector",
	"status", "payment_method", "connector_transaction_id", "connector_metadata",
	"amount_to_capture", "amount_capturable", "error_code", "error_message",
	"authentication_type", "cancellation_reason", "created_at", "modified_at",
}

func TestAttemptRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO payment_attempts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewAttemptRepository(db)
	now := time.Now()
	err = repo.Create(context.Background(), &models.PaymentAttempt{
		ID:              "att_1",
		PaymentID:       "pay_1",
		MerchantID:      "mer_1",
		Connector:       "stripe",
		Status:          models.AttemptStatusCreated,
		AmountToCapture: 1000,
		CreatedAt:       now,
		ModifiedAt:      now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAttemptRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(attemptRows).AddRow(
		"att_1", "pay_1", "mer_1", "", "", "stripe",
		"succeeded", "card", "pi_123", []byte(`{"charge_id":"ch_1"}`),
		int64(1000), int64(0), "", "",
		"", "", now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM payment_attempts WHERE id").
		WithArgs("att_1").
		WillReturnRows(rows)

	repo := NewAttemptRepository(db)
	attempt, err := repo.GetByID(context.Background(), "att_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if attempt.Connector != "stripe" || attempt.ConnectorTransactionID != "pi_123" {
		t.Errorf("attempt = %+v", attempt)
	}
	if attempt.ConnectorMetadata["charge_id"] != "ch_1" {
		t.Errorf("connector metadata not decoded: %+v", attempt.ConnectorMetadata)
	}
}

func TestAttemptRepositoryGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM payment_attempts WHERE id").
		WithArgs("att_missing").
		WillReturnRows(sqlmock.NewRows(attemptRows))

	repo := NewAttemptRepository(db)
	attempt, err := repo.GetByID(context.Background(), "att_missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if attempt != nil {
		t.Errorf("attempt = %+v, want nil", attempt)
	}
}

func TestAttemptRepositoryGetLatestByPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(attemptRows).AddRow(
		"att_2", "pay_1", "mer_1", "", "", "stripe",
		"processing", "card", "pi_456", nil,
		int64(1000), int64(1000), "", "",
		"", "", now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM payment_attempts WHERE payment_id (.+) ORDER BY created_at DESC LIMIT 1").
		WithArgs("pay_1").
		WillReturnRows(rows)

	repo := NewAttemptRepository(db)
	attempt, err := repo.GetLatestByPaymentID(context.Background(), "pay_1")
	if err != nil {
		t.Fatalf("GetLatestByPaymentID: %v", err)
	}
	if attempt.ID != "att_2" {
		t.Errorf("attempt id = %q, want att_2", attempt.ID)
	}
}

func TestAttemptRepositoryUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE payment_attempts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAttemptRepository(db)
	err = repo.Update(context.Background(), &models.PaymentAttempt{
		ID:         "att_1",
		Status:     models.AttemptStatusFailed,
		ErrorCode:  "card_declined",
		ModifiedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
