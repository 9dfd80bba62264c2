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
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payrail/payrail/config"
	"github.com/payrail/payrail/internal/request"
)

// jazzCashCodes maps JazzCash response codes onto outcomes. "000" is the
// documented success code; "124" means the order was received but not yet
// settled, which is an unknown outcome for us.
var jazzCashCodes = CodeTable{
	"000": OutcomeAccepted,
	"121": OutcomeAccepted,
	"124": OutcomeNoResponse,
	"110": OutcomeDeclined,
	"111": OutcomeDeclined,
	"210": OutcomeDeclined,
	"404": OutcomeDeclined,
	"431": OutcomeDeclined,
	"999": OutcomeDeclined,
}

// JazzCash speaks the JazzCash disbursement API. The IBFT channel is
// two-phase (account title inquiry, then transfer); the mobile-wallet
// channel transfers in a single call. Request payloads travel AES-CBC
// encrypted under the integration key.
type JazzCash struct {
	cfg  config.JazzCashConfig
	ibft bool
}

func NewJazzCash(cfg config.JazzCashConfig, ibft bool) *JazzCash {
	return &JazzCash{cfg: cfg, ibft: ibft}
}

func (j *JazzCash) Name() string {
	if j.ibft {
		return JazzCashIBFT
	}
	return JazzCashWallet
}

func (j *JazzCash) TwoPhase() bool {
	return j.ibft
}

type jazzCashEnvelope struct {
	MerchantID string `json:"merchantId"`
	Payload    string `json:"payload"`
}

type jazzCashResponse struct {
	ResponseCode         string `json:"responseCode"`
	ResponseMessage      string `json:"responseMessage"`
	TransactionReference string `json:"transactionReference"`
	AccountTitle         string `json:"accountTitle,omitempty"`
}

// Initiate performs the account inquiry for IBFT, or the transfer itself for
// the mobile-wallet channel.
func (j *JazzCash) Initiate(ctx context.Context, req *Request) *Result {
	path := "/wallet/transfer"
	if j.ibft {
		path = "/ibft/inquiry"
	}
	return j.call(ctx, path, map[string]string{
		"txnRefNo":        req.TransactionID,
		"orderId":         req.OrderID,
		"amount":          req.Amount,
		"receiverMSISDN":  req.DestinationAccount,
		"receiverBank":    req.DestinationBank,
		"merchantId":      j.cfg.MerchantID,
		"password":        j.cfg.Password,
		"transactionType": "disbursement",
		"remarks":         req.Remarks,
	})
}

// Confirm issues the IBFT transfer using the reference handed back by the
// inquiry phase.
func (j *JazzCash) Confirm(ctx context.Context, req *Request, reference string) *Result {
	return j.call(ctx, "/ibft/transfer", map[string]string{
		"txnRefNo":         req.TransactionID,
		"orderId":          req.OrderID,
		"amount":           req.Amount,
		"receiverMSISDN":   req.DestinationAccount,
		"receiverBank":     req.DestinationBank,
		"merchantId":       j.cfg.MerchantID,
		"password":         j.cfg.Password,
		"inquiryReference": reference,
		"remarks":          req.Remarks,
	})
}

// Inquire queries the provider-side status of an earlier disbursement.
func (j *JazzCash) Inquire(ctx context.Context, orderID, reference string) *Result {
	path := "/wallet/statusinquiry"
	if j.ibft {
		path = "/ibft/statusinquiry"
	}
	return j.call(ctx, path, map[string]string{
		"orderId":    orderID,
		"txnRefNo":   reference,
		"merchantId": j.cfg.MerchantID,
		"password":   j.cfg.Password,
	})
}

func (j *JazzCash) call(ctx context.Context, path string, payload map[string]string) *Result {
	// Failures up to the wire write are local: nothing reached the provider.
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return localFailure(err)
	}
	encrypted, err := aesEncrypt([]byte(j.cfg.AESKey), []byte(j.cfg.AESIV), plaintext)
	if err != nil {
		logrus.Errorf("jazzcash payload encryption error: %v", err)
		return localFailure(err)
	}

	body, err := request.ToJsonReq(jazzCashEnvelope{MerchantID: j.cfg.MerchantID, Payload: encrypted})
	if err != nil {
		return localFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.cfg.BaseURL+path, body)
	if err != nil {
		return localFailure(err)
	}

	var resp jazzCashResponse
	if _, err := request.Call(req, &resp); err != nil {
		// Timeout, connection failure or a garbled body. The transfer may or
		// may not have happened on the provider side.
		logrus.Errorf("jazzcash %s call error: %v", path, err)
		return noResponse(err)
	}

	raw := map[string]interface{}{
		"responseCode":         resp.ResponseCode,
		"responseMessage":      resp.ResponseMessage,
		"transactionReference": resp.TransactionReference,
	}
	if resp.AccountTitle != "" {
		raw["accountTitle"] = resp.AccountTitle
	}

	return &Result{
		Outcome:   jazzCashCodes.Classify(resp.ResponseCode),
		Reference: resp.TransactionReference,
		Message:   resp.ResponseMessage,
		Raw:       raw,
	}
}
