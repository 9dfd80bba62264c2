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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	model2 "github.com/payrail/payrail/api/model"
	"github.com/payrail/payrail/model"
)

// CreateMerchant registers a merchant profile.
func (a Api) CreateMerchant(c *gin.Context) {
	var newMerchant model2.CreateMerchant
	if err := c.ShouldBindJSON(&newMerchant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newMerchant.ValidateCreateMerchant(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.payrail.CreateMerchant(c.Request.Context(), model.Merchant{
		Name:               newMerchant.Name,
		DisbursableBalance: newMerchant.DisbursableBalance,
		Fees: model.FeeSchedule{
			CommissionRate:     newMerchant.CommissionRate,
			GSTRate:            newMerchant.GSTRate,
			WithholdingTaxRate: newMerchant.WithholdingTaxRate,
		},
		Provider:           newMerchant.Provider,
		CallbackURL:        newMerchant.CallbackURL,
		EncryptedCallbacks: newMerchant.EncryptedCallbacks,
		LiveStatusInquiry:  newMerchant.LiveStatusInquiry,
		MaxDisbursement:    newMerchant.MaxDisbursement,
		TimeZone:           newMerchant.TimeZone,
	})
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetMerchant retrieves a merchant profile by ID.
func (a Api) GetMerchant(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /merchants/:id"})
		return
	}

	resp, err := a.payrail.GetMerchant(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListDisbursements lists a merchant's disbursement records, newest first.
func (a Api) ListDisbursements(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /merchants/:id/disbursements"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := a.payrail.GetDisbursements(c.Request.Context(), id, limit, offset)
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
