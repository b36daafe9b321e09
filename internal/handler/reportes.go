package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/service"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// ResumenMensual aggregates the journal for one month.
// Query params anio and mes default to the current month.
func (h *ReportesHandler) ResumenMensual(c *gin.Context) {
	ahora := time.Now()
	anio, err := strconv.Atoi(c.DefaultQuery("anio", strconv.Itoa(ahora.Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("anio invalido"))
		return
	}
	mes, err := strconv.Atoi(c.DefaultQuery("mes", strconv.Itoa(int(ahora.Month()))))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("mes invalido"))
		return
	}

	resp, err := h.svc.ResumenMensual(c.Request.Context(), anio, mes)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
