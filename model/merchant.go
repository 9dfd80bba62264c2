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
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Merchant holds a merchant account and its disbursement configuration.
// DisbursableBalance is only ever mutated through the datasource's
// ReserveBalance/ReleaseBalance primitives.
type Merchant struct {
	ID                 int64                  `json:"-"`
	MerchantID         string                 `json:"merchant_id"`
	Name               string                 `json:"name"`
	DisbursableBalance decimal.Decimal        `json:"disbursable_balance"`
	Fees               FeeSchedule            `json:"fees"`
	Provider           string                 `json:"provider"`
	CallbackURL        string                 `json:"callback_url"`
	EncryptedCallbacks bool                   `json:"encrypted_callbacks"`
	LiveStatusInquiry  bool                   `json:"live_status_inquiry"`
	MaxDisbursement    decimal.Decimal        `json:"max_disbursement"`
	TimeZone           string                 `json:"time_zone"`
	CreatedAt          time.Time              `json:"created_at"`
	MetaData           map[string]interface{} `json:"meta_data,omitempty"`
}

// FeeSchedule is the merchant's deduction rate triple. Rates are fractions,
// not percentages: a 1% commission is 0.01.
type FeeSchedule struct {
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	GSTRate            decimal.Decimal `json:"gst_rate"`
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`
}

// FeeBreakdown is the computed deduction set for one disbursement.
type FeeBreakdown struct {
	Commission     decimal.Decimal `json:"commission"`
	GST            decimal.Decimal `json:"gst"`
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
	MerchantAmount decimal.Decimal `json:"merchant_amount"`
}

// Validate rejects negative rates and schedules that deduct the whole amount.
func (f FeeSchedule) Validate() error {
	for _, rate := range []decimal.Decimal{f.CommissionRate, f.GSTRate, f.WithholdingTaxRate} {
		if rate.IsNegative() {
			return fmt.Errorf("fee rates cannot be negative, got %s", rate)
		}
	}
	if f.CommissionRate.Add(f.GSTRate).Add(f.WithholdingTaxRate).GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("combined fee rates must be below 1")
	}
	return nil
}

// Apply computes the deductions for a gross disbursement amount.
//
// Convention: the caller always supplies the gross requested amount.
// MerchantAmount = amount - (commission + gst + wht) is the net figure
// delivered to the destination, and it is also the amount debited from the
// merchant's disbursable balance. Each component is rounded to two decimal
// places before the net amount is derived.
func (f FeeSchedule) Apply(amount decimal.Decimal) (FeeBreakdown, error) {
	if !amount.IsPositive() {
		return FeeBreakdown{}, fmt.Errorf("amount must be greater than zero, got %s", amount)
	}

	commission := amount.Mul(f.CommissionRate).Round(2)
	gst := amount.Mul(f.GSTRate).Round(2)
	wht := amount.Mul(f.WithholdingTaxRate).Round(2)
	net := amount.Sub(commission).Sub(gst).Sub(wht)

	if !net.IsPositive() {
		return FeeBreakdown{}, fmt.Errorf("deductions %s consume the whole amount %s", commission.Add(gst).Add(wht), amount)
	}

	return FeeBreakdown{
		Commission:     commission,
		GST:            gst,
		WithholdingTax: wht,
		MerchantAmount: net,
	}, nil
}

// LocalTime returns t in the merchant's configured timezone. Records carry
// merchant-local timestamps. Falls back to UTC when the zone is unknown.
func (m *Merchant) LocalTime(t time.Time) time.Time {
	if m.TimeZone == "" {
		return t.UTC()
	}
	loc, err := time.LoadLocation(m.TimeZone)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}
