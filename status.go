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
package payrail

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/payrail/payrail/internal/apierror"

	"github.com/payrail/payrail/model"
	"github.com/payrail/payrail/provider"
)

// NormalizedStatus is the provider-agnostic view of one disbursement's state.
type NormalizedStatus struct {
	OrderID              string          `json:"order_id"`
	Status               string          `json:"status"`
	Message              string          `json:"message,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	MerchantAmount       decimal.Decimal `json:"merchantAmount"`
}

// BatchStatusItem wraps one batch lookup so a failed order ID carries its
// error without aborting the rest of the batch.
type BatchStatusItem struct {
	OrderID string            `json:"order_id"`
	Result  *NormalizedStatus `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// InquireStatus reports the current state of a disbursement. Terminal records
// are always answered from the ledger. Pending records are re-checked live at
// the provider when the merchant has live inquiry enabled; otherwise the
// ledger state is returned as-is. Inquiry never mutates the record or the
// balance; resolution of pending attempts belongs to reconciliation.
func (l *Payrail) InquireStatus(ctx context.Context, merchantID, orderID string) (*NormalizedStatus, error) {
	ctx, span := tracer.Start(ctx, "Inquiring disbursement status")
	defer span.End()

	record, err := l.datasource.GetDisbursementByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if record.MerchantID != merchantID {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Disbursement not found", nil)
	}

	status := &NormalizedStatus{
		OrderID:              record.OrderID,
		Status:               record.Status,
		Message:              record.Response,
		TransactionReference: record.ProviderReference,
		Amount:               record.Amount,
		MerchantAmount:       record.MerchantAmount,
	}

	if record.IsTerminal() {
		return status, nil
	}

	merchant, err := l.datasource.GetMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if !merchant.LiveStatusInquiry {
		return status, nil
	}

	adapter, err := l.adapterFor(merchant.Provider)
	if err != nil {
		// Ledger answer still stands when the provider is unreachable.
		logrus.Errorf("live inquiry unavailable for %s: %v", merchant.Provider, err)
		return status, nil
	}

	span.AddEvent("querying provider for live status")
	result := adapter.Inquire(ctx, record.OrderID, record.ProviderReference)
	switch result.Outcome {
	case provider.OutcomeAccepted:
		status.Status = model.StatusCompleted
		status.Message = result.Message
		if result.Reference != "" {
			status.TransactionReference = result.Reference
		}
	case provider.OutcomeDeclined:
		status.Status = model.StatusFailed
		status.Message = result.Message
	default:
		// No usable answer from the provider; the ledger's pending view holds.
	}
	return status, nil
}

// InquireStatusBatch resolves each order ID independently. One failing lookup
// is recorded in its item and the rest of the batch proceeds.
func (l *Payrail) InquireStatusBatch(ctx context.Context, merchantID string, orderIDs []string) ([]BatchStatusItem, error) {
	if len(orderIDs) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "at least one order ID is required", nil)
	}

	items := make([]BatchStatusItem, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		item := BatchStatusItem{OrderID: orderID}
		result, err := l.InquireStatus(ctx, merchantID, orderID)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
		}
		items = append(items, item)
	}
	return items, nil
}
