package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/dto"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/middleware"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/service"
)

// CarritoHandler exposes the per-terminal cart. The terminal id is resolved
// by the Terminal middleware from the X-Terminal header.
type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler {
	return &CarritoHandler{svc: svc}
}

func terminal(c *gin.Context) string { return c.GetString(middleware.TerminalKey) }

// Obtener returns the current cart, created empty on first contact.
func (h *CarritoHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), terminal(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al cargar el carrito"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FijarTasa fixes the session exchange rate. Rejected once fixed.
func (h *CarritoHandler) FijarTasa(c *gin.Context) {
	var req dto.FijarTasaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FijarTasa(c.Request.Context(), terminal(c), req.Tasa)
	if err != nil {
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) AgregarItem(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), terminal(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) QuitarItem(c *gin.Context) {
	resp, err := h.svc.QuitarItem(c.Request.Context(), terminal(c), c.Param("codigo"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) SeleccionarCliente(c *gin.Context) {
	var req dto.ClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SeleccionarCliente(c.Request.Context(), terminal(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) FijarMetodoPago(c *gin.Context) {
	var req dto.MetodoPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FijarMetodoPago(c.Request.Context(), terminal(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) FijarObservaciones(c *gin.Context) {
	var req dto.ObservacionesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FijarObservaciones(c.Request.Context(), terminal(c), req.Observaciones)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Vaciar resets the cart keeping the session rate.
func (h *CarritoHandler) Vaciar(c *gin.Context) {
	resp, err := h.svc.Vaciar(c.Request.Context(), terminal(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al vaciar el carrito"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Checkout registers the cart as a sale. Always 201 when the sale was
// journaled, even if the push to the sheet failed (exito=false in the body).
func (h *CarritoHandler) Checkout(c *gin.Context) {
	resp, err := h.svc.Checkout(c.Request.Context(), terminal(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}
