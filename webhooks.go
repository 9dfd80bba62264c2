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
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payrail/payrail/config"

	"github.com/hibiken/asynq"
)

const WEBHOOK_QUEUE = "new:webhook"

// NewWebhook is a merchant callback notification. URL and Signed come from
// the merchant's profile at enqueue time so the worker needs no database
// access to deliver it.
type NewWebhook struct {
	Event   string      `json:"event"`
	URL     string      `json:"-"`
	Signed  bool        `json:"-"`
	Payload interface{} `json:"data"`
}

// webhookEnvelope is the wire form of a queued callback.
type webhookEnvelope struct {
	Event   string      `json:"event"`
	URL     string      `json:"url"`
	Signed  bool        `json:"signed"`
	Payload interface{} `json:"data"`
}

// signPayload computes the hex HMAC-SHA256 of the callback body with the
// server secret. Merchants with signed callbacks enabled verify this against
// the X-Payrail-Signature header.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// processHTTP delivers a callback via HTTP POST. A non-2XX response is
// logged but not retried here; asynq's retry policy owns redelivery.
func processHTTP(data webhookEnvelope) error {
	conf, err := config.Fetch()
	if err != nil {
		log.Println("Error fetching config:", err)
		return err
	}

	jsonData, err := json.Marshal(NewWebhook{Event: data.Event, Payload: data.Payload})
	if err != nil {
		log.Println("Error marshaling data:", err)
		return err
	}
	payload := bytes.NewBuffer(jsonData)

	req, err := http.NewRequest("POST", data.URL, payload)
	if err != nil {
		log.Println("Error creating request:", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if data.Signed {
		req.Header.Set("X-Payrail-Signature", signPayload(jsonData, conf.Server.SecretKey))
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Println("Error sending request:", err)
		return err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logrus.Error(err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Callback to %s failed with status code: %d\n", data.URL, resp.StatusCode)
		return nil
	}

	log.Println("Callback delivered:", data.Event, data.URL)
	return nil
}

// SendWebhook enqueues a merchant callback for asynchronous delivery.
// Merchants without a callback URL are skipped silently.
func SendWebhook(newWebhook NewWebhook) error {
	if newWebhook.URL == "" {
		return nil
	}

	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: conf.Redis.Dns})
	defer func() {
		if err := client.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	payload, err := json.Marshal(webhookEnvelope{
		Event:   newWebhook.Event,
		URL:     newWebhook.URL,
		Signed:  newWebhook.Signed,
		Payload: newWebhook.Payload,
	})
	if err != nil {
		log.Println(err)
		return err
	}
	taskOptions := []asynq.Option{asynq.Queue(WEBHOOK_QUEUE)}
	task := asynq.NewTask(WEBHOOK_QUEUE, payload, taskOptions...)
	info, err := client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	return err
}

// ProcessWebhook handles a queued callback task from the worker pool.
func ProcessWebhook(_ context.Context, task *asynq.Task) error {
	var payload webhookEnvelope
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling task payload: %v", err)
		return err
	}
	log.Printf("Processing callback: %+v\n", payload.Event)
	return processHTTP(payload)
}
