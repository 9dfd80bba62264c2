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

	"github.com/payrail/payrail/model"
	"github.com/shopspring/decimal"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	merchant     // Interface for merchant and balance operations
	disbursement // Interface for disbursement record operations
}

// merchant defines methods for merchant accounts. ReserveBalance and
// ReleaseBalance are the only two code paths that may write
// disbursable_balance.
type merchant interface {
	CreateMerchant(ctx context.Context, merchant model.Merchant) (model.Merchant, error) // Creates a new merchant account
	GetMerchant(ctx context.Context, merchantID string) (*model.Merchant, error)         // Retrieves a merchant by ID
	ReserveBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error // Atomically checks and decrements the disbursable balance
	ReleaseBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error // Atomically restores a reserved amount
}

// disbursement defines methods for disbursement records.
type disbursement interface {
	CreateDisbursement(ctx context.Context, record *model.Disbursement) (*model.Disbursement, error)                    // Records a new disbursement attempt
	GetDisbursementByOrderID(ctx context.Context, orderID string) (*model.Disbursement, error)                          // Retrieves a disbursement by order ID
	DisbursementExistsByOrderID(ctx context.Context, orderID string) (bool, error)                                      // Checks whether an order ID has been used
	UpdateDisbursementOutcome(ctx context.Context, orderID, status, response, providerReference string) error           // Resolves a record to its outcome
	GetDisbursementsByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]model.Disbursement, error) // Lists a merchant's disbursements
}
