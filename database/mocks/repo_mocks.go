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
package mocks

import (
	"context"

	"github.com/payrail/payrail/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Merchant methods

func (m *MockDataSource) CreateMerchant(ctx context.Context, merchant model.Merchant) (model.Merchant, error) {
	args := m.Called(ctx, merchant)
	return args.Get(0).(model.Merchant), args.Error(1)
}

func (m *MockDataSource) GetMerchant(ctx context.Context, merchantID string) (*model.Merchant, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Merchant), args.Error(1)
}

func (m *MockDataSource) ReserveBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	args := m.Called(ctx, merchantID, amount)
	return args.Error(0)
}

func (m *MockDataSource) ReleaseBalance(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	args := m.Called(ctx, merchantID, amount)
	return args.Error(0)
}

// Disbursement methods

func (m *MockDataSource) CreateDisbursement(ctx context.Context, record *model.Disbursement) (*model.Disbursement, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Disbursement), args.Error(1)
}

func (m *MockDataSource) GetDisbursementByOrderID(ctx context.Context, orderID string) (*model.Disbursement, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Disbursement), args.Error(1)
}

func (m *MockDataSource) DisbursementExistsByOrderID(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) UpdateDisbursementOutcome(ctx context.Context, orderID, status, response, providerReference string) error {
	args := m.Called(ctx, orderID, status, response, providerReference)
	return args.Error(0)
}

func (m *MockDataSource) GetDisbursementsByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]model.Disbursement, error) {
	args := m.Called(ctx, merchantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Disbursement), args.Error(1)
}
