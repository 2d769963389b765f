package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/validation"
	"github.com/noah-isme/pchs-registration-api/pkg/response"
)

type feeSchedule interface {
	All() map[string]int64
}

type contractSource interface {
	Contract(fees map[string]int64) validation.Contract
}

// ReferenceHandler publishes the fee schedule and the form rules to the registration page.
type ReferenceHandler struct {
	fees     feeSchedule
	contract contractSource
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(fees feeSchedule, contract contractSource) *ReferenceHandler {
	return &ReferenceHandler{fees: fees, contract: contract}
}

// Fees godoc
// @Summary Registration fee per class
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *ReferenceHandler) Fees(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.fees.All(), nil)
}

// ValidationRules godoc
// @Summary Registration form rules
// @Description Field rules, photo limits and fees used to validate the registration form
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /validation-rules [get]
func (h *ReferenceHandler) ValidationRules(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.contract.Contract(h.fees.All()), nil)
}
