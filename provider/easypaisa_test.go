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
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/payrail/payrail/config"
)

func easyPaisaTestAdapter(t *testing.T, bank bool) (*EasyPaisa, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	cfg := config.EasyPaisaConfig{
		BaseURL:   "https://sandbox.easypaisa.example",
		StoreID:   "42",
		Username:  "payrail",
		Password:  "secret",
		ChannelID: "web",
	}
	return NewEasyPaisaWithKey(cfg, bank, key), key
}

func TestEasyPaisaInitiate_Accepted(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, key := easyPaisaTestAdapter(t, false)

	httpmock.RegisterResponder(http.MethodPost, "https://sandbox.easypaisa.example/money/transfer",
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			assert.NoError(t, err)

			// The X-Signature header must verify against the body.
			assert.NoError(t, rsaVerify(&key.PublicKey, body, req.Header.Get("X-Signature")))
			assert.NotEmpty(t, req.Header.Get("Credentials"))

			return httpmock.NewJsonResponse(200, map[string]string{
				"responseCode":  "0000",
				"responseDesc":  "SUCCESS",
				"transactionId": "EP-77",
			})
		})

	result := adapter.Initiate(context.Background(), &Request{
		OrderID:            "ord_1",
		TransactionID:      "txn_1",
		Amount:             "98.40",
		DestinationAccount: "03459876543",
	})

	assert.Equal(t, OutcomeAccepted, result.Outcome)
	assert.Equal(t, "EP-77", result.Reference)
}

func TestEasyPaisaConfirm_Declined(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, _ := easyPaisaTestAdapter(t, true)

	httpmock.RegisterResponder(http.MethodPost, "https://sandbox.easypaisa.example/bank/transfer",
		httpmock.NewJsonResponderOrPanic(200, map[string]string{
			"responseCode": "0013",
			"responseDesc": "Invalid beneficiary account",
		}))

	result := adapter.Confirm(context.Background(), &Request{OrderID: "ord_1", TransactionID: "txn_1", Amount: "50.00"}, "TITLE-1")
	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.Equal(t, "Invalid beneficiary account", result.Message)
}

func TestEasyPaisaInquire(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, _ := easyPaisaTestAdapter(t, false)

	httpmock.RegisterResponder(http.MethodPost, "https://sandbox.easypaisa.example/transaction/inquiry",
		httpmock.NewJsonResponderOrPanic(200, map[string]string{
			"responseCode":  "0000",
			"responseDesc":  "SUCCESS",
			"transactionId": "EP-77",
		}))

	result := adapter.Inquire(context.Background(), "ord_1", "EP-77")
	assert.Equal(t, OutcomeAccepted, result.Outcome)
}

func TestEasyPaisaCall_NoResponse(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, _ := easyPaisaTestAdapter(t, false)

	httpmock.RegisterResponder(http.MethodPost, "https://sandbox.easypaisa.example/money/transfer",
		httpmock.NewErrorResponder(assert.AnError))

	result := adapter.Initiate(context.Background(), &Request{OrderID: "ord_1", TransactionID: "txn_1", Amount: "10.00"})
	assert.Equal(t, OutcomeNoResponse, result.Outcome)
}

func TestEasyPaisaCall_ProviderQueued(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, _ := easyPaisaTestAdapter(t, false)

	httpmock.RegisterResponder(http.MethodPost, "https://sandbox.easypaisa.example/money/transfer",
		httpmock.NewJsonResponderOrPanic(200, map[string]string{
			"responseCode": "0001",
			"responseDesc": "PENDING",
		}))

	result := adapter.Initiate(context.Background(), &Request{OrderID: "ord_1", TransactionID: "txn_1", Amount: "10.00"})
	assert.Equal(t, OutcomeNoResponse, result.Outcome)
}

func TestEasyPaisaSigningFailure(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	adapter, _ := easyPaisaTestAdapter(t, false)
	adapter.signKey = nil

	// A request that cannot be signed never goes on the wire, so the
	// outcome is a local failure, not an unknown provider response.
	result := adapter.Initiate(context.Background(), &Request{OrderID: "ord_1", TransactionID: "txn_1", Amount: "10.00"})
	assert.Equal(t, OutcomeLocalFailure, result.Outcome)
	assert.Contains(t, result.Message, "signing key")
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestEasyPaisaNames(t *testing.T) {
	bank, _ := easyPaisaTestAdapter(t, true)
	account, _ := easyPaisaTestAdapter(t, false)

	assert.Equal(t, EasyPaisaBank, bank.Name())
	assert.True(t, bank.TwoPhase())
	assert.Equal(t, EasyPaisaAccount, account.Name())
	assert.False(t, account.TwoPhase())
}
