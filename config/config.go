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
package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5100"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"PAYRAIL_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"PAYRAIL_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"PAYRAIL_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"PAYRAIL_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"PAYRAIL_REDIS_DNS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"PAYRAIL_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"PAYRAIL_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"PAYRAIL_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

// JazzCashConfig carries the credentials and endpoints for the JazzCash
// disbursement API. Payloads are AES-CBC encrypted with the shared key/IV
// pair issued per merchant integration.
type JazzCashConfig struct {
	BaseURL    string `json:"base_url" envconfig:"PAYRAIL_JAZZCASH_BASE_URL"`
	MerchantID string `json:"merchant_id" envconfig:"PAYRAIL_JAZZCASH_MERCHANT_ID"`
	Password   string `json:"password" envconfig:"PAYRAIL_JAZZCASH_PASSWORD"`
	AESKey     string `json:"aes_key" envconfig:"PAYRAIL_JAZZCASH_AES_KEY"`
	AESIV      string `json:"aes_iv" envconfig:"PAYRAIL_JAZZCASH_AES_IV"`
}

// EasyPaisaConfig carries the credentials and endpoints for the EasyPaisa
// disbursement API. Requests are signed with an RSA private key, the
// signature travels in the X-Signature header.
type EasyPaisaConfig struct {
	BaseURL           string `json:"base_url" envconfig:"PAYRAIL_EASYPAISA_BASE_URL"`
	StoreID           string `json:"store_id" envconfig:"PAYRAIL_EASYPAISA_STORE_ID"`
	Username          string `json:"username" envconfig:"PAYRAIL_EASYPAISA_USERNAME"`
	Password          string `json:"password" envconfig:"PAYRAIL_EASYPAISA_PASSWORD"`
	ChannelID         string `json:"channel_id" envconfig:"PAYRAIL_EASYPAISA_CHANNEL_ID"`
	RSAPrivateKeyPath string `json:"rsa_private_key_path" envconfig:"PAYRAIL_EASYPAISA_RSA_KEY_PATH"`
}

// Providers groups per-provider gateway configuration. Sandbox vs production
// is a base URL choice here, never a code path.
type Providers struct {
	JazzCash  JazzCashConfig  `json:"jazzcash"`
	EasyPaisa EasyPaisaConfig `json:"easypaisa"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"PAYRAIL_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Providers    Providers        `json:"providers"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("payrail", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called payrail.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Payrail Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Providers.JazzCash.BaseURL = strings.TrimSuffix(strings.TrimSpace(cnf.Providers.JazzCash.BaseURL), "/")
	cnf.Providers.EasyPaisa.BaseURL = strings.TrimSuffix(strings.TrimSpace(cnf.Providers.EasyPaisa.BaseURL), "/")

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 180
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
