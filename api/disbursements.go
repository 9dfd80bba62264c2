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

	"github.com/gin-gonic/gin"

	"github.com/payrail/payrail"
	model2 "github.com/payrail/payrail/api/model"
)

// InitiateDisbursement starts a payout attempt. A pending outcome is
// reported as 202 with the pending code; the caller polls the status
// endpoint instead of retrying with the same order ID.
func (a Api) InitiateDisbursement(c *gin.Context) {
	var newDisbursement model2.InitiateDisbursement
	if err := c.ShouldBindJSON(&newDisbursement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := newDisbursement.ValidateInitiateDisbursement(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.payrail.InitiateDisbursement(c.Request.Context(), newDisbursement.MerchantID, &payrail.DisbursementRequest{
		OrderID:            newDisbursement.OrderID,
		Amount:             newDisbursement.Amount,
		DestinationAccount: newDisbursement.DestinationAccount,
		DestinationBank:    newDisbursement.DestinationBank,
		Remarks:            newDisbursement.Remarks,
	})
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetDisbursementStatus reports one disbursement's normalized status. The
// owning merchant is passed as the merchant_id query parameter.
func (a Api) GetDisbursementStatus(c *gin.Context) {
	orderID, passed := c.Params.Get("order_id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required. pass id in the route /disbursements/:order_id"})
		return
	}
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_id query parameter is required"})
		return
	}

	resp, err := a.payrail.InquireStatus(c.Request.Context(), merchantID, orderID)
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// BatchDisbursementStatus resolves a list of order IDs in one call, one
// result per ID.
func (a Api) BatchDisbursementStatus(c *gin.Context) {
	var inquiry model2.StatusInquiry
	if err := c.ShouldBindJSON(&inquiry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := inquiry.ValidateStatusInquiry(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	resp, err := a.payrail.InquireStatusBatch(c.Request.Context(), inquiry.MerchantID, inquiry.OrderIDs)
	if err != nil {
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
