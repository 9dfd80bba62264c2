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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payrail/payrail/config"
)

func TestProcessWebhookDelivers(t *testing.T) {
	var received NewWebhook
	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Payrail-Signature")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	config.MockConfig(&config.Configuration{})

	payload, err := json.Marshal(webhookEnvelope{
		Event: "disbursement.completed",
		URL:   server.URL,
		Payload: map[string]interface{}{
			"order_id": "ord_1",
		},
	})
	require.NoError(t, err)

	err = ProcessWebhook(context.Background(), asynq.NewTask(WEBHOOK_QUEUE, payload))
	require.NoError(t, err)
	assert.Equal(t, "disbursement.completed", received.Event)
	assert.Empty(t, signature, "unsigned merchants get no signature header")
}

func TestProcessWebhookSigned(t *testing.T) {
	var signature string
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Payrail-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{SecretKey: "test-secret"},
	})

	payload, err := json.Marshal(webhookEnvelope{
		Event:  "disbursement.completed",
		URL:    server.URL,
		Signed: true,
		Payload: map[string]interface{}{
			"order_id": "ord_1",
		},
	})
	require.NoError(t, err)

	require.NoError(t, ProcessWebhook(context.Background(), asynq.NewTask(WEBHOOK_QUEUE, payload)))

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(body)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestProcessWebhookBadPayload(t *testing.T) {
	err := ProcessWebhook(context.Background(), asynq.NewTask(WEBHOOK_QUEUE, []byte("not json")))
	require.Error(t, err)
}

func TestSendWebhookSkipsWithoutURL(t *testing.T) {
	require.NoError(t, SendWebhook(NewWebhook{Event: "disbursement.completed"}))
}

func TestSignPayloadDeterministic(t *testing.T) {
	a := signPayload([]byte(`{"x":1}`), "k")
	b := signPayload([]byte(`{"x":1}`), "k")
	c := signPayload([]byte(`{"x":2}`), "k")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
