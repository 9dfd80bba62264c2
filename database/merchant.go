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
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/payrail/payrail/internal/apierror"
	"github.com/payrail/payrail/model"
)

// reservationTxTimeout bounds the reservation transaction. Exceeding it is a
// transient conflict, not an insufficient balance.
const reservationTxTimeout = 60 * time.Second

var (
	// ErrInsufficientBalance means the guarded decrement found less balance
	// than requested. Terminal for the attempt; no external call may follow.
	ErrInsufficientBalance = errors.New("insufficient disbursable balance")

	// ErrTransientConflict means the store could not decide the reservation
	// (serialization failure, deadlock, lock or statement timeout). The
	// balance was not decremented; callers map this to a pending outcome.
	ErrTransientConflict = errors.New("balance reservation hit a transient conflict")
)

// classifyReservationErr separates conflict-shaped store errors from the rest.
func classifyReservationErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransientConflict
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014": // query_canceled (statement timeout)
			return ErrTransientConflict
		}
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, "Balance reservation failed", err)
}

// CreateMerchant inserts a new merchant account row.
func (d Datasource) CreateMerchant(ctx context.Context, merchant model.Merchant) (model.Merchant, error) {
	metaDataJSON, err := json.Marshal(merchant.MetaData)
	if err != nil {
		return model.Merchant{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	merchant.MerchantID = model.GenerateUUIDWithSuffix("mch")
	merchant.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO merchants (merchant_id, name, disbursable_balance, commission_rate, gst_rate, withholding_tax_rate, provider, callback_url, encrypted_callbacks, live_status_inquiry, max_disbursement, time_zone, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, merchant.MerchantID, merchant.Name, merchant.DisbursableBalance, merchant.Fees.CommissionRate,
		merchant.Fees.GSTRate, merchant.Fees.WithholdingTaxRate, merchant.Provider, merchant.CallbackURL,
		merchant.EncryptedCallbacks, merchant.LiveStatusInquiry, merchant.MaxDisbursement,
		merchant.TimeZone, merchant.CreatedAt, metaDataJSON)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.Merchant{}, apierror.NewAPIError(apierror.ErrConflict, "Merchant already exists", err)
		}
		return model.Merchant{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create merchant", err)
	}

	return merchant, nil
}

// GetMerchant retrieves a merchant account by its ID.
func (d Datasource) GetMerchant(ctx context.Context, merchantID string) (*model.Merchant, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT merchant_id, name, disbursable_balance, commission_rate, gst_rate, withholding_tax_rate, provider, COALESCE(callback_url, ''), encrypted_callbacks, live_status_inquiry, max_disbursement, time_zone, created_at, meta_data
		FROM merchants
		WHERE merchant_id = $1
	`, merchantID)

	merchant := model.Merchant{}
	var metaDataJSON []byte
	err := row.Scan(&merchant.MerchantID, &merchant.Name, &merchant.DisbursableBalance,
		&merchant.Fees.CommissionRate, &merchant.Fees.GSTRate, &merchant.Fees.WithholdingTaxRate,
		&merchant.Provider, &merchant.CallbackURL, &merchant.EncryptedCallbacks,
		&merchant.LiveStatusInquiry, &merchant.MaxDisbursement, &merchant.TimeZone,
		&merchant.CreatedAt, &metaDataJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Merchant not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve merchant", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &merchant.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return &merchant, nil
}

// ReserveBalance atomically checks and decrements a merchant's disbursable
// balance inside a RepeatableRead transaction. The guard and the decrement
// are one statement so no concurrent attempt can observe the balance between
// check and write.
//
// Returns ErrInsufficientBalance when the guard fails and
// ErrTransientConflict when the store could not decide the outcome.
func (d Datasource) ReserveBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, reservationTxTimeout)
	defer cancel()

	tx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return classifyReservationErr(err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE merchants
		SET disbursable_balance = disbursable_balance - $2
		WHERE merchant_id = $1 AND disbursable_balance >= $2
	`, merchantID, amount)
	if err != nil {
		return classifyReservationErr(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classifyReservationErr(err)
	}
	if rowsAffected == 0 {
		// Merchant existence is validated before reservation, so a zero row
		// count means the guard rejected the decrement.
		return ErrInsufficientBalance
	}

	if err := tx.Commit(); err != nil {
		return classifyReservationErr(err)
	}
	return nil
}

// ReleaseBalance atomically restores a previously reserved amount. The caller
// guarantees at most one release per reservation.
func (d Datasource) ReleaseBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE merchants
		SET disbursable_balance = disbursable_balance + $2
		WHERE merchant_id = $1
	`, merchantID, amount)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to release reserved balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Merchant not found for balance release", nil)
	}
	return nil
}
