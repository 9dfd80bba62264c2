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
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Disbursement is one payout attempt. A record transitions out of pending at
// most once and is never deleted.
type Disbursement struct {
	ID                 int64                  `json:"-"`
	TransactionID      string                 `json:"transaction_id"`
	OrderID            string                 `json:"order_id"`
	MerchantID         string                 `json:"merchant_id"`
	Provider           string                 `json:"provider"`
	DestinationAccount string                 `json:"destination_account"`
	DestinationBank    string                 `json:"destination_bank,omitempty"`
	Amount             decimal.Decimal        `json:"amount"`
	Commission         decimal.Decimal        `json:"commission"`
	GST                decimal.Decimal        `json:"gst"`
	WithholdingTax     decimal.Decimal        `json:"withholding_tax"`
	MerchantAmount     decimal.Decimal        `json:"merchant_amount"`
	ProviderReference  string                 `json:"provider_reference,omitempty"`
	Status             string                 `json:"status"`
	Response           string                 `json:"response"`
	CreatedAt          time.Time              `json:"created_at"`
	MetaData           map[string]interface{} `json:"meta_data,omitempty"`
}

// IsTerminal reports whether the record has reached a final outcome.
func (d *Disbursement) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}
