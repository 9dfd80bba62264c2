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
	"embed"

	"github.com/redis/go-redis/v9"

	"github.com/payrail/payrail/config"
	"github.com/payrail/payrail/database"
	"github.com/payrail/payrail/provider"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

// Payrail is the disbursement service: it owns the ledger datasource, the
// per-merchant locking client, the balance reservation manager, and the
// provider adapter factory.
type Payrail struct {
	datasource   database.IDataSource
	redis        redis.UniversalClient
	reservations *ReservationManager
	adapterFor   func(name string) (provider.Adapter, error)
}

// NewPayrail initializes the service from the loaded configuration.
func NewPayrail(db database.IDataSource) (*Payrail, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL("redis://" + configuration.Redis.Dns)
	if err != nil {
		return nil, err
	}

	providers := configuration.Providers
	return &Payrail{
		datasource:   db,
		redis:        redis.NewClient(redisOpts),
		reservations: NewReservationManager(db),
		adapterFor: func(name string) (provider.Adapter, error) {
			return provider.New(name, providers)
		},
	}, nil
}
