package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/service"
)

type CreditoHandler struct{ svc service.CreditoService }

func NewCreditoHandler(svc service.CreditoService) *CreditoHandler {
	return &CreditoHandler{svc: svc}
}

// CalcularPlan previews a payment plan: initial payment plus cuotas on the
// next pay days. Pure calculation, registers nothing.
func (h *CreditoHandler) CalcularPlan(c *gin.Context) {
	var req dto.CalcularPlanRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.CalcularPlan(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarProveedores returns the accepted credit providers for the terminal's
// payment method selector.
func (h *CreditoHandler) ListarProveedores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"proveedores": credito.Proveedores})
}
