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

	"github.com/payrail/payrail/internal/apierror"
	"github.com/payrail/payrail/model"
)

const disbursementFields = `
	transaction_id, order_id, merchant_id, provider, destination_account,
	COALESCE(destination_bank, ''), amount, commission, gst, withholding_tax,
	merchant_amount, COALESCE(provider_reference, ''), status, COALESCE(response, ''),
	created_at, meta_data`

// CreateDisbursement records a new disbursement attempt. The unique index on
// order_id is the idempotency guard of last resort: a duplicate submitted in
// the window between the existence check and this insert still loses here.
func (d Datasource) CreateDisbursement(ctx context.Context, record *model.Disbursement) (*model.Disbursement, error) {
	metaDataJSON, err := json.Marshal(record.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	if record.TransactionID == "" {
		record.TransactionID = model.GenerateUUIDWithSuffix("txn")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO disbursements (transaction_id, order_id, merchant_id, provider, destination_account, destination_bank, amount, commission, gst, withholding_tax, merchant_amount, provider_reference, status, response, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, record.TransactionID, record.OrderID, record.MerchantID, record.Provider,
		record.DestinationAccount, record.DestinationBank, record.Amount, record.Commission,
		record.GST, record.WithholdingTax, record.MerchantAmount, record.ProviderReference,
		record.Status, record.Response, record.CreatedAt, metaDataJSON)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apierror.NewAPIError(apierror.ErrConflict, "Order ID has already been used", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record disbursement", err)
	}

	return record, nil
}

// GetDisbursementByOrderID retrieves a disbursement record by its order ID.
func (d Datasource) GetDisbursementByOrderID(ctx context.Context, orderID string) (*model.Disbursement, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+disbursementFields+`
		FROM disbursements
		WHERE order_id = $1
	`, orderID)

	record, err := scanDisbursement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Disbursement not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve disbursement", err)
	}
	return record, nil
}

// DisbursementExistsByOrderID checks whether an order ID has been used.
func (d Datasource) DisbursementExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := d.Conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM disbursements WHERE order_id = $1)
	`, orderID).Scan(&exists)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check order ID", err)
	}
	return exists, nil
}

// UpdateDisbursementOutcome resolves a pending record. Records transition out
// of pending at most once; a record already in a terminal status is left
// untouched and the update surfaces as a conflict.
func (d Datasource) UpdateDisbursementOutcome(ctx context.Context, orderID, status, response, providerReference string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE disbursements
		SET status = $2, response = $3, provider_reference = $4
		WHERE order_id = $1 AND status = $5
	`, orderID, status, response, providerReference, model.StatusPending)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update disbursement", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "Disbursement is not pending or does not exist", nil)
	}
	return nil
}

// GetDisbursementsByMerchant lists a merchant's disbursement records, newest first.
func (d Datasource) GetDisbursementsByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]model.Disbursement, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+disbursementFields+`
		FROM disbursements
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to list disbursements", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []model.Disbursement
	for rows.Next() {
		record, err := scanDisbursement(rows.Scan)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan disbursement", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate disbursements", err)
	}
	return records, nil
}

func scanDisbursement(scan func(dest ...interface{}) error) (*model.Disbursement, error) {
	record := model.Disbursement{}
	var metaDataJSON []byte
	err := scan(&record.TransactionID, &record.OrderID, &record.MerchantID, &record.Provider,
		&record.DestinationAccount, &record.DestinationBank, &record.Amount, &record.Commission,
		&record.GST, &record.WithholdingTax, &record.MerchantAmount, &record.ProviderReference,
		&record.Status, &record.Response, &record.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &record.MetaData); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
