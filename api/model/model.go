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
	"errors"

	"github.com/shopspring/decimal"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// InitiateDisbursement is the request body for starting a payout.
type InitiateDisbursement struct {
	MerchantID         string                 `json:"merchant_id"`
	OrderID            string                 `json:"order_id"`
	Amount             decimal.Decimal        `json:"amount"`
	DestinationAccount string                 `json:"destination_account"`
	DestinationBank    string                 `json:"destination_bank"`
	Remarks            string                 `json:"remarks"`
	MetaData           map[string]interface{} `json:"meta_data"`
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok || !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

func (d *InitiateDisbursement) ValidateInitiateDisbursement() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.MerchantID, validation.Required),
		validation.Field(&d.Amount, validation.By(positiveAmount)),
		validation.Field(&d.DestinationAccount, validation.Required),
	)
}

// StatusInquiry is the request body for the batch status endpoint.
type StatusInquiry struct {
	MerchantID string   `json:"merchant_id"`
	OrderIDs   []string `json:"order_ids"`
}

func (s *StatusInquiry) ValidateStatusInquiry() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.MerchantID, validation.Required),
		validation.Field(&s.OrderIDs, validation.Required, validation.Length(1, 100)),
	)
}

// CreateMerchant is the request body for registering a merchant profile.
type CreateMerchant struct {
	Name               string          `json:"name"`
	DisbursableBalance decimal.Decimal `json:"disbursable_balance"`
	CommissionRate     decimal.Decimal `json:"commission_rate"`
	GSTRate            decimal.Decimal `json:"gst_rate"`
	WithholdingTaxRate decimal.Decimal `json:"withholding_tax_rate"`
	Provider           string          `json:"provider"`
	CallbackURL        string          `json:"callback_url"`
	EncryptedCallbacks bool            `json:"encrypted_callbacks"`
	LiveStatusInquiry  bool            `json:"live_status_inquiry"`
	MaxDisbursement    decimal.Decimal `json:"max_disbursement"`
	TimeZone           string          `json:"time_zone"`
}

func (m *CreateMerchant) ValidateCreateMerchant() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required),
	)
}
