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
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/payrail/payrail"
	"github.com/payrail/payrail/config"

	"github.com/hibiken/asynq"
)

func initializeQueues() map[string]int {
	queues := make(map[string]int)
	queues[payrail.WEBHOOK_QUEUE] = 3
	return queues
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: conf.Redis.Dns},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	)
}

// workerCommands defines the "workers" command. The workers drain the
// merchant callback queue.
func workerCommands(_ *payrailInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start payrail workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queues := initializeQueues()
			srv := initializeWorkerServer(conf, queues)

			mux := asynq.NewServeMux()
			mux.HandleFunc(payrail.WEBHOOK_QUEUE, payrail.ProcessWebhook)

			if err := srv.Run(mux); err != nil {
				log.Fatal("Error running worker server:", err)
			}
		},
	}

	return cmd
}
