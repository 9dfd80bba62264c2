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

	"github.com/payrail/payrail/internal/apierror"

	"github.com/payrail/payrail/model"
	"github.com/payrail/payrail/provider"
)

// CreateMerchant registers a merchant profile after checking the configured
// provider channel is one the gateway can actually serve.
func (l *Payrail) CreateMerchant(ctx context.Context, merchant model.Merchant) (model.Merchant, error) {
	ctx, span := tracer.Start(ctx, "Creating merchant")
	defer span.End()

	if merchant.Provider != "" {
		if !provider.IsKnownChannel(merchant.Provider) {
			return model.Merchant{}, apierror.NewAPIError(apierror.ErrBadRequest, "unknown disbursement provider "+merchant.Provider, nil)
		}
	}
	if err := merchant.Fees.Validate(); err != nil {
		return model.Merchant{}, apierror.NewAPIError(apierror.ErrBadRequest, err.Error(), err)
	}

	return l.datasource.CreateMerchant(ctx, merchant)
}

// GetMerchant retrieves a merchant profile by ID.
func (l *Payrail) GetMerchant(ctx context.Context, merchantID string) (*model.Merchant, error) {
	ctx, span := tracer.Start(ctx, "Retrieving merchant")
	defer span.End()

	return l.datasource.GetMerchant(ctx, merchantID)
}

// GetDisbursements lists a merchant's disbursement records, newest first.
func (l *Payrail) GetDisbursements(ctx context.Context, merchantID string, limit, offset int) ([]model.Disbursement, error) {
	ctx, span := tracer.Start(ctx, "Listing disbursements")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	if _, err := l.datasource.GetMerchant(ctx, merchantID); err != nil {
		return nil, err
	}
	return l.datasource.GetDisbursementsByMerchant(ctx, merchantID, limit, offset)
}
