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
	"fmt"

	"github.com/payrail/payrail/config"
)

// Outcome is the classification every provider phase collapses into.
// NoResponse means the external side effect's result is unknown; the caller
// must treat the money as neither sent nor safe to re-send. LocalFailure
// means the request never left this process, so the external outcome is
// known: nothing was sent.
type Outcome string

const (
	OutcomeAccepted     Outcome = "ACCEPTED"
	OutcomeDeclined     Outcome = "DECLINED"
	OutcomeNoResponse   Outcome = "NO_RESPONSE"
	OutcomeLocalFailure Outcome = "LOCAL_FAILURE"
)

// Request is the provider-agnostic payload for one disbursement phase.
// Amount is already formatted for the wire (two decimal places).
type Request struct {
	OrderID            string
	TransactionID      string
	Amount             string
	DestinationAccount string
	DestinationBank    string
	Remarks            string
}

// Result is the uniform shape of a provider phase response.
type Result struct {
	Outcome   Outcome
	Reference string
	Message   string
	Raw       map[string]interface{}
}

// Adapter wraps one provider channel behind a uniform two-phase contract.
// One-phase channels report TwoPhase() == false and are complete after
// Initiate.
type Adapter interface {
	Name() string
	TwoPhase() bool
	Initiate(ctx context.Context, req *Request) *Result
	Confirm(ctx context.Context, req *Request, reference string) *Result
	Inquire(ctx context.Context, orderID, reference string) *Result
}

// CodeTable maps a provider's response codes onto outcomes. Codes absent
// from the table classify as declined: the provider answered, we just don't
// recognize the answer as success or ambiguity.
type CodeTable map[string]Outcome

func (t CodeTable) Classify(code string) Outcome {
	if outcome, ok := t[code]; ok {
		return outcome
	}
	return OutcomeDeclined
}

// Provider channel names, as stored on the merchant record.
const (
	JazzCashIBFT     = "jazzcash-ibft"
	JazzCashWallet   = "jazzcash-wallet"
	EasyPaisaAccount = "easypaisa-ma"
	EasyPaisaBank    = "easypaisa-bank"
)

// IsKnownChannel reports whether name is a channel New can serve.
func IsKnownChannel(name string) bool {
	switch name {
	case JazzCashIBFT, JazzCashWallet, EasyPaisaAccount, EasyPaisaBank:
		return true
	}
	return false
}

// New builds the adapter for a merchant's configured provider channel.
func New(name string, providers config.Providers) (Adapter, error) {
	switch name {
	case JazzCashIBFT:
		return NewJazzCash(providers.JazzCash, true), nil
	case JazzCashWallet:
		return NewJazzCash(providers.JazzCash, false), nil
	case EasyPaisaAccount:
		return NewEasyPaisa(providers.EasyPaisa, false)
	case EasyPaisaBank:
		return NewEasyPaisa(providers.EasyPaisa, true)
	default:
		return nil, fmt.Errorf("unknown disbursement provider %q", name)
	}
}

func noResponse(err error) *Result {
	return &Result{Outcome: OutcomeNoResponse, Message: err.Error()}
}

// localFailure marks an error raised before the request went on the wire.
func localFailure(err error) *Result {
	return &Result{Outcome: OutcomeLocalFailure, Message: err.Error()}
}
