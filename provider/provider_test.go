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
package provider

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/payrail/payrail/config"
)

func TestCodeTableClassify(t *testing.T) {
	table := CodeTable{
		"000": OutcomeAccepted,
		"124": OutcomeNoResponse,
	}

	assert.Equal(t, OutcomeAccepted, table.Classify("000"))
	assert.Equal(t, OutcomeNoResponse, table.Classify("124"))
	// Unknown codes are an explicit answer we don't recognize as success.
	assert.Equal(t, OutcomeDeclined, table.Classify("777"))
	assert.Equal(t, OutcomeDeclined, table.Classify(""))
}

func TestNewSelectsAdapter(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "key.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	assert.NoError(t, os.WriteFile(keyPath, pemBytes, 0o600))

	providers := config.Providers{
		JazzCash:  config.JazzCashConfig{BaseURL: "https://jc.example"},
		EasyPaisa: config.EasyPaisaConfig{BaseURL: "https://ep.example", RSAPrivateKeyPath: keyPath},
	}

	tests := []struct {
		name     string
		twoPhase bool
	}{
		{JazzCashIBFT, true},
		{JazzCashWallet, false},
		{EasyPaisaAccount, false},
		{EasyPaisaBank, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.name, providers)
			assert.NoError(t, err)
			assert.Equal(t, tt.name, adapter.Name())
			assert.Equal(t, tt.twoPhase, adapter.TwoPhase())
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("stripe", config.Providers{})
	assert.Error(t, err)
}

func TestNewEasyPaisaMissingKey(t *testing.T) {
	_, err := New(EasyPaisaAccount, config.Providers{})
	assert.Error(t, err)
}
