package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/apierror"
)

// TerminalKey is the gin context key carrying the terminal id.
const TerminalKey = "terminal"

// The terminal id becomes part of a Redis key; keep it boring.
var terminalRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// Terminal resolves the calling terminal from the X-Terminal header. Carts
// live per terminal, so the header is mandatory on every /carrito route.
func Terminal() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := c.GetHeader("X-Terminal")
		if !terminalRe.MatchString(t) {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("Encabezado X-Terminal requerido"))
			return
		}
		c.Set(TerminalKey, t)
		c.Next()
	}
}
