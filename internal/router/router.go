package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/config"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/handler"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/infra"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/middleware"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/repository"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/service"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/sheets"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository/Sheets ← DB/Redis/API
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hoja *sheets.Service, sheetsCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute))

	empresa := infra.Empresa{
		Nombre:    cfg.EmpresaNombre,
		Direccion: cfg.EmpresaDireccion,
		Telefono:  cfg.EmpresaTelefono,
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	ventaRepo := repository.NewVentaRepository(db)
	carritoRepo := repository.NewCarritoRepository(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	catalogoSvc := service.NewCatalogoService(hoja, sheetsCB, rdb)
	creditoSvc := service.NewCreditoService(cfg.FraccionInicial, cfg.NumCuotas, cfg.FormatoFecha)
	ventaSvc := service.NewVentaService(ventaRepo, catalogoSvc, hoja, sheetsCB, dispatcher, cfg.FraccionInicial, cfg.NumCuotas, cfg.FormatoFecha)
	carritoSvc := service.NewCarritoService(carritoRepo, catalogoSvc, ventaSvc, cfg.FraccionInicial, cfg.NumCuotas, cfg.FormatoFecha)
	reporteSvc := service.NewReporteService(ventaRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	catalogoH := handler.NewCatalogoHandler(catalogoSvc)
	creditoH := handler.NewCreditoHandler(creditoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	recibosH := handler.NewRecibosHandler(ventaRepo, empresa, cfg.FormatoFecha, cfg.PDFStoragePath)
	reportesH := handler.NewReportesHandler(reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, sheetsCB))

	v1 := r.Group("/v1")
	{
		v1.GET("/productos", catalogoH.ListarProductos)
		v1.GET("/productos/:codigo", catalogoH.ObtenerProducto)
		v1.GET("/clientes", catalogoH.ListarClientes)

		v1.POST("/credito/plan", creditoH.CalcularPlan)
		v1.GET("/credito/proveedores", creditoH.ListarProveedores)

		v1.POST("/ventas", ventasH.RegistrarVenta)
		v1.GET("/ventas", ventasH.ListarVentas)
		v1.GET("/ventas/:id", ventasH.ObtenerVenta)
		v1.POST("/ventas/:id/reenviar", ventasH.ReenviarVenta)
		v1.GET("/ventas/:id/recibo", recibosH.DescargarRecibo)

		v1.GET("/reportes/mensual", reportesH.ResumenMensual)

		// Cart routes require the X-Terminal header
		carrito := v1.Group("/carrito", middleware.Terminal())
		{
			carrito.GET("", carritoH.Obtener)
			carrito.POST("/tasa", carritoH.FijarTasa)
			carrito.POST("/items", carritoH.AgregarItem)
			carrito.DELETE("/items/:codigo", carritoH.QuitarItem)
			carrito.PUT("/cliente", carritoH.SeleccionarCliente)
			carrito.PUT("/metodo-pago", carritoH.FijarMetodoPago)
			carrito.PUT("/observaciones", carritoH.FijarObservaciones)
			carrito.DELETE("", carritoH.Vaciar)
			carrito.POST("/checkout", carritoH.Checkout)
		}
	}

	return r
}
