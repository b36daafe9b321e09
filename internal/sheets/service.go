// Package sheets is the client for the spreadsheet that acts as the store's
// backend: the PROCDINVENT sheet publishes the catalog and the Ventas sheet
// receives every completed sale. The spreadsheet is an external system; this
// package only reads and appends, and every caller must tolerate failure
// (catalog degrades to empty, sales stay queued in the local journal).
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/config"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
)

// Service wraps the Sheets API for the two worksheets the register uses.
type Service struct {
	srv            *sheets.Service
	spreadsheetID  string
	hojaVentas     string
	hojaInventario string
	formatoFecha   string
	log            zerolog.Logger
}

// NewService builds the client from service-account credentials, taken from
// GOOGLE_APPLICATION_CREDENTIALS (file path) or GOOGLE_CREDENTIALS (inline JSON).
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	const op = "sheets.NewService"

	if cfg.SheetID == "" {
		return nil, fmt.Errorf("%s: SHEET_ID no configurado", op)
	}

	var creds []byte
	var err error
	switch {
	case cfg.GoogleCredsFile != "":
		creds, err = os.ReadFile(cfg.GoogleCredsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: leer credenciales: %w", op, err)
		}
	case cfg.GoogleCredsJSON != "":
		creds = []byte(cfg.GoogleCredsJSON)
	default:
		return nil, fmt.Errorf("%s: ni GOOGLE_APPLICATION_CREDENTIALS ni GOOGLE_CREDENTIALS configurados", op)
	}

	jwtCfg, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: credenciales inválidas: %w", op, err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: crear cliente: %w", op, err)
	}

	return &Service{
		srv:            srv,
		spreadsheetID:  cfg.SheetID,
		hojaVentas:     cfg.HojaVentas,
		hojaInventario: cfg.HojaInventario,
		formatoFecha:   cfg.FormatoFecha,
		log:            log.With().Str("component", "sheets").Logger(),
	}, nil
}

// ── Inventario ───────────────────────────────────────────────────────────────

// FetchInventario reads the catalog: Código | Descripción | Precio USD | Stock | Stock Mínimo.
func (s *Service) FetchInventario(ctx context.Context) ([]model.Producto, error) {
	rango := s.hojaInventario + "!A2:E"
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rango).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: leer inventario: %w", err)
	}

	productos := make([]model.Producto, 0, len(resp.Values))
	for _, fila := range resp.Values {
		p := model.Producto{
			Codigo:      celdaTexto(fila, 0),
			Nombre:      celdaTexto(fila, 1),
			PrecioUSD:   celdaDecimal(fila, 2),
			Stock:       celdaEntero(fila, 3),
			StockMinimo: celdaEntero(fila, 4),
		}
		if p.Codigo == "" {
			continue
		}
		productos = append(productos, p)
	}
	return productos, nil
}

// ProductosBajoStock returns catalog rows at or below their minimum.
func (s *Service) ProductosBajoStock(ctx context.Context) ([]model.Producto, error) {
	productos, err := s.FetchInventario(ctx)
	if err != nil {
		return nil, err
	}
	var bajos []model.Producto
	for _, p := range productos {
		if p.BajoStock() {
			bajos = append(bajos, p)
		}
	}
	return bajos, nil
}

// ── Clientes ─────────────────────────────────────────────────────────────────

// FetchClientes derives the autocomplete list from the historical sales rows
// (columns B..D: Cliente, Cédula, Teléfono), unique by cédula, last one wins.
func (s *Service) FetchClientes(ctx context.Context) ([]model.Cliente, error) {
	rango := s.hojaVentas + "!B2:D"
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, rango).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: leer clientes: %w", err)
	}

	porCedula := make(map[string]model.Cliente)
	var orden []string
	for _, fila := range resp.Values {
		c := model.Cliente{
			Nombre:   celdaTexto(fila, 0),
			Cedula:   celdaTexto(fila, 1),
			Telefono: celdaTexto(fila, 2),
		}
		if c.Cedula == "" || c.Nombre == "" {
			continue
		}
		if _, visto := porCedula[c.Cedula]; !visto {
			orden = append(orden, c.Cedula)
		}
		porCedula[c.Cedula] = c
	}

	clientes := make([]model.Cliente, 0, len(orden))
	for _, ced := range orden {
		clientes = append(clientes, porCedula[ced])
	}
	return clientes, nil
}

// ── Ventas ───────────────────────────────────────────────────────────────────

// AppendVenta writes one row per sale with the same columns the sheet has
// always carried: Fecha, Cliente, Cédula, Teléfono, Items, Total $, Total Bs,
// Tasa, Forma Pago, Detalle Crédito, Observaciones, Estado.
func (s *Service) AppendVenta(ctx context.Context, v *model.Venta) error {
	fila := []interface{}{
		v.CreatedAt.Format(s.formatoFecha + " 15:04"),
		v.ClienteNombre,
		v.ClienteCedula,
		v.ClienteTelefono,
		itemsTexto(v.Items),
		v.TotalUSD.InexactFloat64(),
		v.TotalBs.InexactFloat64(),
		v.Tasa.InexactFloat64(),
		formaPagoTexto(v.MetodoPago),
		s.detalleCreditoTexto(v),
		observacionesTexto(v.Observaciones),
		"Completado",
	}

	_, err := s.srv.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.hojaVentas+"!A:L",
		&sheets.ValueRange{Values: [][]interface{}{fila}},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: registrar venta #%d: %w", v.Numero, err)
	}

	s.log.Info().Int("numero", v.Numero).Msg("venta registrada en la hoja")
	return nil
}

// DescontarStock decrements the stock cell of every sold product. Best-effort:
// the sheet is authoritative for inventory, an unknown code is just skipped.
func (s *Service) DescontarStock(ctx context.Context, items []model.VentaItem) error {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, s.hojaInventario+"!A2:D").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: leer stock: %w", err)
	}

	filaPorCodigo := make(map[string]int, len(resp.Values)) // fila real en la hoja
	stockPorCodigo := make(map[string]int, len(resp.Values))
	for i, fila := range resp.Values {
		codigo := celdaTexto(fila, 0)
		if codigo == "" {
			continue
		}
		filaPorCodigo[codigo] = i + 2
		stockPorCodigo[codigo] = celdaEntero(fila, 3)
	}

	var cambios []*sheets.ValueRange
	for _, item := range items {
		fila, ok := filaPorCodigo[item.Codigo]
		if !ok {
			s.log.Warn().Str("codigo", item.Codigo).Msg("código no encontrado en inventario, stock sin descontar")
			continue
		}
		nuevo := stockPorCodigo[item.Codigo] - item.Cantidad
		cambios = append(cambios, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!D%d", s.hojaInventario, fila),
			Values: [][]interface{}{{nuevo}},
		})
	}
	if len(cambios) == 0 {
		return nil
	}

	_, err = s.srv.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             cambios,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: descontar stock: %w", err)
	}
	return nil
}

// ── Helpers de celdas y formato ──────────────────────────────────────────────

func celdaTexto(fila []interface{}, i int) string {
	if i >= len(fila) || fila[i] == nil {
		return ""
	}
	switch v := fila[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func celdaEntero(fila []interface{}, i int) int {
	if i >= len(fila) {
		return 0
	}
	switch v := fila[i].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		fmt.Sscanf(strings.TrimSpace(v), "%d", &n)
		return n
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

func celdaDecimal(fila []interface{}, i int) decimal.Decimal {
	if i >= len(fila) {
		return decimal.Zero
	}
	switch v := fila[i].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		limpio := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		d, err := decimal.NewFromString(limpio)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func itemsTexto(items []model.VentaItem) string {
	partes := make([]string, 0, len(items))
	for _, it := range items {
		partes = append(partes, fmt.Sprintf("%s - %s (x%d)", it.Codigo, it.Nombre, it.Cantidad))
	}
	return strings.Join(partes, ", ")
}

func formaPagoTexto(metodo string) string {
	if metodo == model.PagoCredito {
		return "Crédito"
	}
	return "Contado"
}

func (s *Service) detalleCreditoTexto(v *model.Venta) string {
	if v.PlanCredito == nil || *v.PlanCredito == "" {
		return "N/A"
	}
	var plan credito.Plan
	if err := json.Unmarshal([]byte(*v.PlanCredito), &plan); err != nil {
		return "N/A"
	}
	partes := make([]string, 0, len(plan.Cuotas)+1)
	partes = append(partes, fmt.Sprintf("%s - Inicial: $%s", plan.Proveedor, plan.InicialUSD.StringFixed(2)))
	for _, c := range plan.Cuotas {
		partes = append(partes, fmt.Sprintf("Cuota %d: $%s (%s)", c.Numero, c.MontoUSD.StringFixed(2), c.Fecha.Format(s.formatoFecha)))
	}
	return strings.Join(partes, " | ")
}

func observacionesTexto(obs *string) string {
	if obs == nil {
		return ""
	}
	return *obs
}
