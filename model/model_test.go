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
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("txn")
	assert.True(t, strings.HasPrefix(id, "txn_"))
	assert.NotEqual(t, id, GenerateUUIDWithSuffix("txn"))
}

func TestWireAmount(t *testing.T) {
	assert.Equal(t, "100.00", WireAmount(decimal.NewFromInt(100)))
	assert.Equal(t, "98.40", WireAmount(decimal.RequireFromString("98.4")))
	assert.Equal(t, "0.10", WireAmount(decimal.RequireFromString("0.1")))
}

func TestFeeScheduleApply(t *testing.T) {
	fees := FeeSchedule{
		CommissionRate:     decimal.RequireFromString("0.01"),
		GSTRate:            decimal.RequireFromString("0.005"),
		WithholdingTaxRate: decimal.RequireFromString("0.001"),
	}

	breakdown, err := fees.Apply(decimal.NewFromInt(100))
	assert.NoError(t, err)
	assert.True(t, breakdown.Commission.Equal(decimal.RequireFromString("1.00")), "commission %s", breakdown.Commission)
	assert.True(t, breakdown.GST.Equal(decimal.RequireFromString("0.50")), "gst %s", breakdown.GST)
	assert.True(t, breakdown.WithholdingTax.Equal(decimal.RequireFromString("0.10")), "wht %s", breakdown.WithholdingTax)
	assert.True(t, breakdown.MerchantAmount.Equal(decimal.RequireFromString("98.40")), "merchant amount %s", breakdown.MerchantAmount)
}

func TestFeeScheduleApplyZeroRates(t *testing.T) {
	var fees FeeSchedule
	breakdown, err := fees.Apply(decimal.NewFromInt(250))
	assert.NoError(t, err)
	assert.True(t, breakdown.MerchantAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, breakdown.Commission.IsZero())
}

func TestFeeScheduleApplyRejectsNonPositiveAmount(t *testing.T) {
	var fees FeeSchedule
	_, err := fees.Apply(decimal.Zero)
	assert.Error(t, err)

	_, err = fees.Apply(decimal.NewFromInt(-5))
	assert.Error(t, err)
}

func TestFeeScheduleApplyRejectsFeesConsumingAmount(t *testing.T) {
	fees := FeeSchedule{
		CommissionRate: decimal.RequireFromString("0.6"),
		GSTRate:        decimal.RequireFromString("0.5"),
	}
	_, err := fees.Apply(decimal.NewFromInt(100))
	assert.Error(t, err)
}

func TestMerchantLocalTime(t *testing.T) {
	merchant := Merchant{TimeZone: "Asia/Karachi"}
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	local := merchant.LocalTime(utc)
	assert.Equal(t, "Asia/Karachi", local.Location().String())
	assert.True(t, local.Equal(utc))

	merchant.TimeZone = "not/a-zone"
	assert.Equal(t, time.UTC, merchant.LocalTime(utc).Location())
}

func TestDisbursementIsTerminal(t *testing.T) {
	d := Disbursement{Status: StatusPending}
	assert.False(t, d.IsTerminal())
	d.Status = StatusCompleted
	assert.True(t, d.IsTerminal())
	d.Status = StatusFailed
	assert.True(t, d.IsTerminal())
}
