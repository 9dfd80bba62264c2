/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/payrail/payrail/internal/apierror"
	"github.com/payrail/payrail/model"
)

func TestCreateMerchant_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	merchant := model.Merchant{
		Name:               gofakeit.Company(),
		DisbursableBalance: decimal.NewFromInt(1000),
		Provider:           "jazzcash-ibft",
		TimeZone:           "Asia/Karachi",
	}

	mock.ExpectExec("INSERT INTO merchants").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateMerchant(context.Background(), merchant)
	assert.NoError(t, err)
	assert.NotEmpty(t, created.MerchantID)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMerchant_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO merchants").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	_, err = ds.CreateMerchant(context.Background(), model.Merchant{Name: "dup"})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestGetMerchant_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	rows := sqlmock.NewRows([]string{
		"merchant_id", "name", "disbursable_balance", "commission_rate", "gst_rate",
		"withholding_tax_rate", "provider", "callback_url", "encrypted_callbacks",
		"live_status_inquiry", "max_disbursement", "time_zone", "created_at", "meta_data",
	}).AddRow("mch_123", "Acme", "1000", "0.01", "0.005", "0.001", "jazzcash-ibft",
		"https://acme.example/cb", false, false, "0", "Asia/Karachi", time.Now(), []byte(`{"tier":"gold"}`))

	mock.ExpectQuery("SELECT merchant_id, name, disbursable_balance").
		WithArgs("mch_123").
		WillReturnRows(rows)

	merchant, err := ds.GetMerchant(context.Background(), "mch_123")
	assert.NoError(t, err)
	assert.Equal(t, "mch_123", merchant.MerchantID)
	assert.True(t, merchant.DisbursableBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, merchant.Fees.CommissionRate.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, "gold", merchant.MetaData["tier"])
}

func TestGetMerchant_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT merchant_id, name, disbursable_balance").
		WithArgs("mch_missing").
		WillReturnRows(sqlmock.NewRows([]string{"merchant_id"}))

	_, err = ds.GetMerchant(context.Background(), "mch_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestReserveBalance_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.RequireFromString("98.40")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = ds.ReserveBalance(context.Background(), "mch_123", amount)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveBalance_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.NewFromInt(5000)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = ds.ReserveBalance(context.Background(), "mch_123", amount)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestReserveBalance_SerializationConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.NewFromInt(100)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err = ds.ReserveBalance(context.Background(), "mch_123", amount)
	assert.ErrorIs(t, err, ErrTransientConflict)
}

func TestReserveBalance_DeadlockConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.NewFromInt(100)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
	mock.ExpectRollback()

	err = ds.ReserveBalance(context.Background(), "mch_123", amount)
	assert.ErrorIs(t, err, ErrTransientConflict)
}

func TestReserveBalance_CommitConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.NewFromInt(100)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err = ds.ReserveBalance(context.Background(), "mch_123", amount)
	assert.ErrorIs(t, err, ErrTransientConflict)
}

func TestReleaseBalance_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	amount := decimal.RequireFromString("98.40")

	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_123", amount.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = ds.ReleaseBalance(context.Background(), "mch_123", amount)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseBalance_MerchantMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE merchants").
		WithArgs("mch_gone", decimal.NewFromInt(10).String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.ReleaseBalance(context.Background(), "mch_gone", decimal.NewFromInt(10))
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}
