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
	"crypto/rsa"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payrail/payrail/config"
	"github.com/payrail/payrail/internal/request"
)

// easyPaisaCodes maps EasyPaisa response codes onto outcomes. "0000" is
// success, "0001" means the transfer is queued provider-side.
var easyPaisaCodes = CodeTable{
	"0000": OutcomeAccepted,
	"0001": OutcomeNoResponse,
	"0002": OutcomeDeclined,
	"0010": OutcomeDeclined,
	"0013": OutcomeDeclined,
	"0058": OutcomeDeclined,
	"0091": OutcomeDeclined,
}

// EasyPaisa speaks the EasyPaisa disbursement API. The bank-transfer channel
// is two-phase (title fetch, then transfer); the mobile-account channel
// completes in one call. Every request body is signed with the integration's
// RSA key and the signature travels in the X-Signature header.
type EasyPaisa struct {
	cfg     config.EasyPaisaConfig
	bank    bool
	signKey *rsa.PrivateKey
}

// NewEasyPaisa loads the signing key from the configured path.
func NewEasyPaisa(cfg config.EasyPaisaConfig, bank bool) (*EasyPaisa, error) {
	key, err := loadRSAPrivateKey(cfg.RSAPrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return NewEasyPaisaWithKey(cfg, bank, key), nil
}

// NewEasyPaisaWithKey builds the adapter with an already-parsed key.
func NewEasyPaisaWithKey(cfg config.EasyPaisaConfig, bank bool, key *rsa.PrivateKey) *EasyPaisa {
	return &EasyPaisa{cfg: cfg, bank: bank, signKey: key}
}

func (e *EasyPaisa) Name() string {
	if e.bank {
		return EasyPaisaBank
	}
	return EasyPaisaAccount
}

func (e *EasyPaisa) TwoPhase() bool {
	return e.bank
}

type easyPaisaResponse struct {
	ResponseCode    string `json:"responseCode"`
	ResponseDesc    string `json:"responseDesc"`
	TransactionID   string `json:"transactionId"`
	BeneficiaryName string `json:"beneficiaryName,omitempty"`
}

// Initiate fetches the beneficiary title for bank transfers, or moves the
// money directly for mobile accounts.
func (e *EasyPaisa) Initiate(ctx context.Context, req *Request) *Result {
	path := "/money/transfer"
	if e.bank {
		path = "/bank/titlefetch"
	}
	return e.call(ctx, path, map[string]string{
		"storeId":        e.cfg.StoreID,
		"channelId":      e.cfg.ChannelID,
		"orderId":        req.OrderID,
		"transactionRef": req.TransactionID,
		"amount":         req.Amount,
		"msisdn":         req.DestinationAccount,
		"bankCode":       req.DestinationBank,
		"remarks":        req.Remarks,
	})
}

// Confirm issues the bank transfer using the reference from the title fetch.
func (e *EasyPaisa) Confirm(ctx context.Context, req *Request, reference string) *Result {
	return e.call(ctx, "/bank/transfer", map[string]string{
		"storeId":        e.cfg.StoreID,
		"channelId":      e.cfg.ChannelID,
		"orderId":        req.OrderID,
		"transactionRef": req.TransactionID,
		"titleReference": reference,
		"amount":         req.Amount,
		"accountNumber":  req.DestinationAccount,
		"bankCode":       req.DestinationBank,
		"remarks":        req.Remarks,
	})
}

// Inquire queries the provider-side status of an earlier disbursement.
func (e *EasyPaisa) Inquire(ctx context.Context, orderID, reference string) *Result {
	return e.call(ctx, "/transaction/inquiry", map[string]string{
		"storeId":        e.cfg.StoreID,
		"orderId":        orderID,
		"transactionRef": reference,
	})
}

func (e *EasyPaisa) call(ctx context.Context, path string, payload map[string]string) *Result {
	// Failures up to the wire write are local: nothing reached the provider.
	body, err := json.Marshal(payload)
	if err != nil {
		return localFailure(err)
	}
	signature, err := rsaSign(e.signKey, body)
	if err != nil {
		logrus.Errorf("easypaisa request signing error: %v", err)
		return localFailure(err)
	}

	buf, err := request.ToJsonReq(payload)
	if err != nil {
		return localFailure(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+path, buf)
	if err != nil {
		return localFailure(err)
	}
	req.Header.Set("X-Signature", signature)
	req.Header.Set("Credentials", request.BasicAuth(e.cfg.Username, e.cfg.Password))

	var resp easyPaisaResponse
	if _, err := request.Call(req, &resp); err != nil {
		logrus.Errorf("easypaisa %s call error: %v", path, err)
		return noResponse(err)
	}

	raw := map[string]interface{}{
		"responseCode":  resp.ResponseCode,
		"responseDesc":  resp.ResponseDesc,
		"transactionId": resp.TransactionID,
	}
	if resp.BeneficiaryName != "" {
		raw["beneficiaryName"] = resp.BeneficiaryName
	}

	return &Result{
		Outcome:   easyPaisaCodes.Classify(resp.ResponseCode),
		Reference: resp.TransactionID,
		Message:   resp.ResponseDesc,
		Raw:       raw,
	}
}
