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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/payrail/payrail/database"
)

// reserveMaxRetries bounds how often a conflicted reservation is retried
// before the attempt is surfaced as pending.
const reserveMaxRetries = 3

// ReservationManager performs the provisional debit and compensating credit
// of a merchant's disbursable balance. It is the only caller of the
// datasource's balance primitives; nothing else in the service may write the
// balance field.
type ReservationManager struct {
	datasource database.IDataSource
}

func NewReservationManager(db database.IDataSource) *ReservationManager {
	return &ReservationManager{datasource: db}
}

// Reserve atomically checks and decrements the merchant's disbursable
// balance. Transient store conflicts are retried a few times with backoff;
// if the conflict persists it is returned as database.ErrTransientConflict
// so the caller can record the attempt as pending instead of failed.
// database.ErrInsufficientBalance is never retried.
func (r *ReservationManager) Reserve(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	operation := func() error {
		err := r.datasource.ReserveBalance(ctx, merchantID, amount)
		if err == nil {
			return nil
		}
		if errors.Is(err, database.ErrTransientConflict) {
			logrus.Warnf("reservation conflict for merchant %s, retrying: %v", merchantID, err)
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newReserveBackOff(), reserveMaxRetries), ctx)
	return backoff.Retry(operation, bo)
}

// Release restores exactly the reserved amount. The orchestrator guarantees
// at most one release per reservation via its local reserved flag.
func (r *ReservationManager) Release(ctx context.Context, merchantID string, amount decimal.Decimal) error {
	return r.datasource.ReleaseBalance(ctx, merchantID, amount)
}

func newReserveBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	return bo
}
