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
	"database/sql"
	"log"
	"sync"

	"github.com/payrail/payrail/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createMerchantTable(db)
	if err != nil {
		return nil, err
	}
	err = createDisbursementTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createMerchantTable creates a PostgreSQL table for the Merchant struct.
// The non-negative balance invariant is enforced by the reservation guard in
// ReserveBalance, not by a CHECK constraint.
func createMerchantTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS merchants (
			id SERIAL PRIMARY KEY,
			merchant_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			disbursable_balance NUMERIC(20,4) NOT NULL DEFAULT 0,
			commission_rate NUMERIC(9,6) NOT NULL DEFAULT 0,
			gst_rate NUMERIC(9,6) NOT NULL DEFAULT 0,
			withholding_tax_rate NUMERIC(9,6) NOT NULL DEFAULT 0,
			provider TEXT NOT NULL,
			callback_url TEXT,
			encrypted_callbacks BOOLEAN NOT NULL DEFAULT FALSE,
			live_status_inquiry BOOLEAN NOT NULL DEFAULT FALSE,
			max_disbursement NUMERIC(20,4) NOT NULL DEFAULT 0,
			time_zone TEXT NOT NULL DEFAULT 'Asia/Karachi',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	log.Println(err)
	return err
}

// createDisbursementTable creates a PostgreSQL table for the Disbursement
// struct. order_id carries the idempotency guarantee.
func createDisbursementTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS disbursements (
			id SERIAL PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			order_id TEXT NOT NULL UNIQUE,
			merchant_id TEXT NOT NULL REFERENCES merchants(merchant_id),
			provider TEXT NOT NULL,
			destination_account TEXT NOT NULL,
			destination_bank TEXT,
			amount NUMERIC(20,4) NOT NULL,
			commission NUMERIC(20,4) NOT NULL,
			gst NUMERIC(20,4) NOT NULL,
			withholding_tax NUMERIC(20,4) NOT NULL,
			merchant_amount NUMERIC(20,4) NOT NULL,
			provider_reference TEXT,
			status TEXT NOT NULL,
			response TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	log.Println(err)
	return err
}
