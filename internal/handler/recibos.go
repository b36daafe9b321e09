package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
)

// RecibosHandler serves the PDF receipt of a sale. The recibo worker usually
// pre-generates the file; when it is missing the handler renders it on the
// spot, so the first download is just slower, never lost.
type RecibosHandler struct {
	ventaRepo    repository.VentaRepository
	empresa      infra.Empresa
	formatoFecha string
	storagePath  string
}

func NewRecibosHandler(ventaRepo repository.VentaRepository, empresa infra.Empresa, formatoFecha, storagePath string) *RecibosHandler {
	return &RecibosHandler{
		ventaRepo:    ventaRepo,
		empresa:      empresa,
		formatoFecha: formatoFecha,
		storagePath:  storagePath,
	}
}

func (h *RecibosHandler) DescargarRecibo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}

	venta, err := h.ventaRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Venta no encontrada"))
		return
	}

	path := filepath.Join(h.storagePath, fmt.Sprintf("recibo_%d.pdf", venta.Numero))
	if _, err := os.Stat(path); err != nil {
		var plan *credito.Plan
		if venta.PlanCredito != nil && *venta.PlanCredito != "" {
			var p credito.Plan
			if json.Unmarshal([]byte(*venta.PlanCredito), &p) == nil {
				plan = &p
			}
		}
		path, err = infra.GenerarReciboPDF(venta, plan, h.empresa, h.formatoFecha, h.storagePath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, apierror.New("No se pudo generar el recibo"))
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="recibo_%d.pdf"`, venta.Numero))
	c.File(path)
}
