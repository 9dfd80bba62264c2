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
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/payrail/payrail/internal/apierror"
	redlock "github.com/payrail/payrail/internal/lock"
	"github.com/payrail/payrail/internal/notification"

	"github.com/payrail/payrail/database"
	"github.com/payrail/payrail/model"
	"github.com/payrail/payrail/provider"
)

var (
	tracer = otel.Tracer("Disbursement")
)

// merchantLockTTL covers the longest possible attempt: the reservation
// transaction plus two provider calls with their timeouts.
const merchantLockTTL = 5 * time.Minute

// merchantLockWait bounds how long a contending attempt queues behind the
// current holder before giving up. Attempts that outwait the holder proceed
// to the balance guard instead of being rejected outright.
const merchantLockWait = 30 * time.Second

// DisbursementRequest is a caller's payout instruction. Amount is the gross
// figure; fees are deducted from it per the merchant's schedule.
type DisbursementRequest struct {
	OrderID            string
	Amount             decimal.Decimal
	DestinationAccount string
	DestinationBank    string
	Remarks            string
}

// ExternalAPIResponse is the normalized provider envelope returned to callers.
type ExternalAPIResponse struct {
	TransactionReference string `json:"TransactionReference"`
	TransactionStatus    string `json:"TransactionStatus"`
}

// DisbursementResult is the success payload of an initiated disbursement.
type DisbursementResult struct {
	Message             string              `json:"message"`
	MerchantAmount      decimal.Decimal     `json:"merchantAmount"`
	OrderID             string              `json:"order_id"`
	ExternalAPIResponse ExternalAPIResponse `json:"externalApiResponse"`
}

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// InitiateDisbursement drives one payout attempt end to end: validate the
// request, reserve the merchant's balance, run the provider's one or two
// phases, classify the outcome, resolve the record and fire the merchant
// callback.
//
// The reserved flag tracks whether a release is still owed; every exit path
// below either consumed the reservation (completed), released it, or never
// took it.
func (l *Payrail) InitiateDisbursement(ctx context.Context, merchantID string, req *DisbursementRequest) (*DisbursementResult, error) {
	ctx, span := tracer.Start(ctx, "Initiating disbursement")
	defer span.End()

	merchant, adapter, err := l.validateDisbursement(ctx, merchantID, req)
	if err != nil {
		return nil, err
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = model.GenerateUUIDWithSuffix("ord")
	}

	breakdown, err := merchant.Fees.Apply(req.Amount)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, err.Error(), err)
	}

	// Attempts for one merchant serialize on the lock; contenders wait their
	// turn so each one is judged against the balance, not the lock.
	locker := redlock.NewMerchantLocker(l.redis, merchant.MerchantID, model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, merchantLockTTL, merchantLockWait); err != nil {
		return nil, logAndRecordError(span, "merchant lock error: ", apierror.NewAPIError(apierror.ErrInternalServer, "could not serialize disbursement attempts for this merchant", err))
	}
	defer func(locker *redlock.Locker, ctx context.Context) {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("lock error", err)
		}
	}(locker, ctx)

	record := &model.Disbursement{
		TransactionID:      model.GenerateUUIDWithSuffix("txn"),
		OrderID:            orderID,
		MerchantID:         merchant.MerchantID,
		Provider:           merchant.Provider,
		DestinationAccount: req.DestinationAccount,
		DestinationBank:    req.DestinationBank,
		Amount:             req.Amount,
		Commission:         breakdown.Commission,
		GST:                breakdown.GST,
		WithholdingTax:     breakdown.WithholdingTax,
		MerchantAmount:     breakdown.MerchantAmount,
		Status:             model.StatusPending,
		Response:           "pending",
		CreatedAt:          merchant.LocalTime(time.Now()),
	}

	// Reserve before any external call. The record is written after the
	// reservation so a crash window always leaves either no decrement or a
	// decrement with a pending record to reconcile against.
	span.AddEvent("reserving merchant balance")
	if err := l.reservations.Reserve(ctx, merchant.MerchantID, breakdown.MerchantAmount); err != nil {
		return nil, l.reservationFailed(ctx, span, record, err)
	}
	reserved := true

	if _, err := l.datasource.CreateDisbursement(ctx, record); err != nil {
		l.mustRelease(ctx, record, breakdown.MerchantAmount, &reserved)
		return nil, logAndRecordError(span, "persist disbursement error: ", err)
	}

	providerReq := &provider.Request{
		OrderID:            orderID,
		TransactionID:      record.TransactionID,
		Amount:             model.WireAmount(breakdown.MerchantAmount),
		DestinationAccount: req.DestinationAccount,
		DestinationBank:    req.DestinationBank,
		Remarks:            req.Remarks,
	}

	span.AddEvent(fmt.Sprintf("calling %s phase 1", adapter.Name()))
	result := adapter.Initiate(ctx, providerReq)
	if err := l.classifyPhase(ctx, record, result, breakdown.MerchantAmount, &reserved); err != nil {
		return nil, err
	}

	if adapter.TwoPhase() {
		// Restart the TTL so the second phase gets the same window the
		// first one had.
		if err := locker.ExtendLock(ctx, merchantLockTTL); err != nil {
			logrus.Warnf("lock extension failed for merchant %s: %v", merchant.MerchantID, err)
		}
		span.AddEvent(fmt.Sprintf("calling %s phase 2", adapter.Name()))
		result = adapter.Confirm(ctx, providerReq, result.Reference)
		if err := l.classifyPhase(ctx, record, result, breakdown.MerchantAmount, &reserved); err != nil {
			return nil, err
		}
	}

	// Terminal success: the decrement is now permanent.
	if err := l.datasource.UpdateDisbursementOutcome(ctx, orderID, model.StatusCompleted, "success", result.Reference); err != nil {
		notification.NotifyError(fmt.Errorf("disbursement %s completed at provider but record update failed: %w", record.TransactionID, err))
		return nil, logAndRecordError(span, "record resolution error: ", err)
	}
	record.Status = model.StatusCompleted
	record.ProviderReference = result.Reference

	l.postDisbursementActions(ctx, merchant, record)

	return &DisbursementResult{
		Message:        "disbursement successful",
		MerchantAmount: breakdown.MerchantAmount,
		OrderID:        orderID,
		ExternalAPIResponse: ExternalAPIResponse{
			TransactionReference: result.Reference,
			TransactionStatus:    "success",
		},
	}, nil
}

// validateDisbursement checks the request, the merchant and the order ID
// before any money moves. Every failure here is side-effect free.
func (l *Payrail) validateDisbursement(ctx context.Context, merchantID string, req *DisbursementRequest) (*model.Merchant, provider.Adapter, error) {
	ctx, span := tracer.Start(ctx, "Validating disbursement request")
	defer span.End()

	if req == nil || !req.Amount.IsPositive() {
		return nil, nil, apierror.NewAPIError(apierror.ErrBadRequest, "amount must be greater than zero", nil)
	}
	if req.DestinationAccount == "" {
		return nil, nil, apierror.NewAPIError(apierror.ErrBadRequest, "destination account is required", nil)
	}

	merchant, err := l.datasource.GetMerchant(ctx, merchantID)
	if err != nil {
		return nil, nil, err
	}
	if merchant.Provider == "" {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, "merchant has no disbursement account configured", nil)
	}

	if merchant.MaxDisbursement.IsPositive() && req.Amount.GreaterThan(merchant.MaxDisbursement) {
		return nil, nil, apierror.NewAPIError(apierror.ErrBadRequest,
			fmt.Sprintf("amount %s exceeds the configured ceiling %s", req.Amount, merchant.MaxDisbursement), nil)
	}

	if req.OrderID != "" {
		exists, err := l.datasource.DisbursementExistsByOrderID(ctx, req.OrderID)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, apierror.NewAPIError(apierror.ErrConflict,
				fmt.Sprintf("order ID %s has already been used", req.OrderID), nil)
		}
	}

	adapter, err := l.adapterFor(merchant.Provider)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "disbursement provider unavailable", err)
	}

	return merchant, adapter, nil
}

// reservationFailed maps a failed reservation to its terminal outcome.
// Neither branch decremented the balance, so no release is owed.
func (l *Payrail) reservationFailed(ctx context.Context, span trace.Span, record *model.Disbursement, err error) error {
	if errors.Is(err, database.ErrInsufficientBalance) {
		record.Status = model.StatusFailed
		record.Response = "insufficient disbursable balance"
		if _, persistErr := l.datasource.CreateDisbursement(ctx, record); persistErr != nil {
			logrus.Errorf("ERROR saving failed disbursement %s: %v", record.TransactionID, persistErr)
		}
		return apierror.NewAPIError(apierror.ErrBadRequest, "insufficient disbursable balance", err)
	}

	if errors.Is(err, database.ErrTransientConflict) {
		// The store never applied the decrement. Record the attempt as
		// pending so it is auditable and resolvable out of band.
		record.Status = model.StatusPending
		record.Response = "pending"
		if _, persistErr := l.datasource.CreateDisbursement(ctx, record); persistErr != nil {
			logrus.Errorf("ERROR saving pending disbursement %s: %v", record.TransactionID, persistErr)
		}
		return apierror.NewAPIError(apierror.ErrPending, "transaction pending", err)
	}

	return logAndRecordError(span, "reservation error: ", apierror.NewAPIError(apierror.ErrInternalServer, "balance reservation failed", err))
}

// classifyPhase applies the outcome of one provider phase. Returns nil only
// for an accepted phase; any other outcome resolves the attempt (releasing
// the reservation first) and returns the classified error.
func (l *Payrail) classifyPhase(ctx context.Context, record *model.Disbursement, result *provider.Result, reservedAmount decimal.Decimal, reserved *bool) error {
	switch result.Outcome {
	case provider.OutcomeAccepted:
		return nil

	case provider.OutcomeDeclined:
		if err := l.mustRelease(ctx, record, reservedAmount, reserved); err != nil {
			return err
		}
		if err := l.datasource.UpdateDisbursementOutcome(ctx, record.OrderID, model.StatusFailed, result.Message, result.Reference); err != nil {
			logrus.Errorf("ERROR resolving declined disbursement %s: %v", record.TransactionID, err)
		}
		record.Status = model.StatusFailed
		return apierror.NewAPIError(apierror.ErrProviderDeclined, result.Message, result.Raw)

	case provider.OutcomeLocalFailure:
		// The request never left this process, so the external outcome is
		// known: nothing was sent. Fail the attempt outright instead of
		// parking a decidable failure in the pending queue.
		if err := l.mustRelease(ctx, record, reservedAmount, reserved); err != nil {
			return err
		}
		if err := l.datasource.UpdateDisbursementOutcome(ctx, record.OrderID, model.StatusFailed, result.Message, result.Reference); err != nil {
			logrus.Errorf("ERROR resolving failed disbursement %s: %v", record.TransactionID, err)
		}
		record.Status = model.StatusFailed
		return apierror.NewAPIError(apierror.ErrInternalServer, result.Message, nil)

	default: // provider.OutcomeNoResponse
		// Unknown outcome: money must not stay reserved indefinitely, but the
		// attempt must not be declared lost either. Release and leave the
		// record pending for the reconciler.
		if err := l.mustRelease(ctx, record, reservedAmount, reserved); err != nil {
			return err
		}
		if err := l.datasource.UpdateDisbursementOutcome(ctx, record.OrderID, model.StatusPending, "pending", result.Reference); err != nil {
			logrus.Errorf("ERROR updating pending disbursement %s: %v", record.TransactionID, err)
		}
		return apierror.NewAPIError(apierror.ErrPending, "transaction pending", result.Message)
	}
}

// mustRelease performs the compensating credit exactly once and always
// before the caller responds. A failed release leaves a stuck decrement, so
// it is escalated for manual reconciliation with the transaction ID.
func (l *Payrail) mustRelease(ctx context.Context, record *model.Disbursement, amount decimal.Decimal, reserved *bool) error {
	if !*reserved {
		return nil
	}
	if err := l.reservations.Release(ctx, record.MerchantID, amount); err != nil {
		notification.NotifyError(fmt.Errorf("release failed for disbursement %s (merchant %s, amount %s): %w",
			record.TransactionID, record.MerchantID, amount, err))
		return apierror.NewAPIError(apierror.ErrInternalServer,
			fmt.Sprintf("balance release failed for transaction %s, manual reconciliation required", record.TransactionID), err)
	}
	*reserved = false
	return nil
}

// postDisbursementActions fires the merchant's completion callback.
// Delivery failures are logged, never propagated.
func (l *Payrail) postDisbursementActions(_ context.Context, merchant *model.Merchant, record *model.Disbursement) {
	if merchant.CallbackURL == "" {
		return
	}
	go func() {
		err := SendWebhook(NewWebhook{
			Event:  "disbursement.completed",
			URL:    merchant.CallbackURL,
			Signed: merchant.EncryptedCallbacks,
			Payload: map[string]interface{}{
				"order_id":            record.OrderID,
				"merchant_id":         record.MerchantID,
				"destination_account": record.DestinationAccount,
				"merchant_amount":     record.MerchantAmount,
				"timestamp":           record.CreatedAt,
			},
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}
