package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/service"
)

// CatalogoHandler serves the product catalog and the customer autocomplete
// list, both read from the external sheet.
type CatalogoHandler struct{ svc service.CatalogoService }

func NewCatalogoHandler(svc service.CatalogoService) *CatalogoHandler {
	return &CatalogoHandler{svc: svc}
}

// ListarProductos returns the catalog, optionally filtered by the buscar
// query param (matches name or código). Responses flagged degradado=true
// came from the Redis backup copy because the sheet was unreachable.
func (h *CatalogoHandler) ListarProductos(c *gin.Context) {
	resp, err := h.svc.ListarProductos(c.Request.Context(), c.Query("buscar"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar productos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerProducto returns one product by its código.
func (h *CatalogoHandler) ObtenerProducto(c *gin.Context) {
	p, err := h.svc.BuscarProducto(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListarClientes returns the autocomplete list, optionally filtered by the
// q query param (matches name or cédula).
func (h *CatalogoHandler) ListarClientes(c *gin.Context) {
	resp, err := h.svc.ListarClientes(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar clientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
