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
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/payrail/payrail/api"
	"github.com/payrail/payrail/config"
	trace "github.com/payrail/payrail/internal/traces"
)

func initializeRouter(b *payrailInstance) *gin.Engine {
	return api.NewAPI(b.payrail).Router()
}

func initializeTracing(ctx context.Context) (func(context.Context) error, error) {
	return trace.SetupOTelSDK(ctx, "PAYRAIL")
}

func startServer(router *gin.Engine, cfg config.ServerConfig) error {
	log.Printf("Starting server on http://localhost:%s", cfg.Port)
	return router.Run(":" + cfg.Port)
}

// serverCommands returns the command that starts the HTTP API.
func serverCommands(b *payrailInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start payrail server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			shutdownTracing, err := initializeTracing(ctx)
			if err != nil {
				log.Fatalf("Error setting up tracing: %v", err)
			}
			defer func() {
				if err := shutdownTracing(ctx); err != nil {
					log.Printf("Error shutting down tracing: %v", err)
				}
			}()

			router := initializeRouter(b)

			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			if err := startServer(router, cfg.Server); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
