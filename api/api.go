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
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/payrail/payrail"
	"github.com/payrail/payrail/api/middleware"
	"github.com/payrail/payrail/config"
	"github.com/payrail/payrail/internal/apierror"
)

type Api struct {
	payrail *payrail.Payrail
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/disbursements", a.InitiateDisbursement)
	router.GET("/disbursements/:order_id", a.GetDisbursementStatus)
	router.POST("/disbursements/status", a.BatchDisbursementStatus)

	router.POST("/merchants", a.CreateMerchant)
	router.GET("/merchants/:id", a.GetMerchant)
	router.GET("/merchants/:id/disbursements", a.ListDisbursements)
	return a.router
}

func NewAPI(p *payrail.Payrail) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{payrail: p, router: r}
}

// jsonError writes a classified service error with its mapped HTTP status.
func jsonError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if apiErr, ok := err.(apierror.APIError); ok {
		c.JSON(status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
