package infra

// pdf.go — thermal-format sale receipts via go-pdf/fpdf:
//   - Business header (name, address, phone)
//   - Sale number, date, customer identity
//   - Item table (code, name, quantity, subtotal USD)
//   - Totals in both currencies plus the session exchange rate
//   - Credit plan table (initial payment + cuotas) when the sale is a crédito

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/credito"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/moneda"
)

// Empresa holds the business identity printed on every receipt.
type Empresa struct {
	Nombre    string
	Direccion string
	Telefono  string
}

// GenerarReciboPDF renders the receipt for a registered sale and returns the
// absolute path of the written file. plan may be nil for cash sales.
func GenerarReciboPDF(v *model.Venta, plan *credito.Plan, emp Empresa, formatoFecha, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: crear directorio: %w", err)
	}

	fileName := fmt.Sprintf("recibo_%d.pdf", v.Numero)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm × 160mm — thermal receipt paper, taller to fit the plan table
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 160},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Encabezado ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, emp.Nombre, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, emp.Direccion, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, emp.Telefono, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Datos de la venta ────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Venta N° %d", v.Numero), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, v.CreatedAt.Format(formatoFecha+"  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Cliente: %s (%s)", v.ClienteNombre, v.ClienteCedula), "", 1, "L", false, 0, "")
	pdf.Ln(1)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range v.Items {
		pdf.CellFormat(col1, 5, truncarNombre(item.Nombre, 22), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, moneda.FormatearUSD(item.SubtotalUSD), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totales en ambas monedas ─────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL USD:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, moneda.FormatearUSD(v.TotalUSD), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 6, "TOTAL Bs:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, moneda.FormatearBs(v.TotalBs), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Tasa: %s Bs/USD", v.Tasa.String()), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Forma de pago: "+formaPago(v), "", 1, "L", false, 0, "")

	// ── Plan de crédito ──────────────────────────────────────────────────────
	if plan != nil && len(plan.Cuotas) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, "Plan "+plan.Proveedor, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(col1+col2, 4, "Inicial:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, moneda.FormatearUSD(plan.InicialUSD), "", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(col1, 5, "Vence", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "USD", "B", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "Bs", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, c := range plan.Cuotas {
			pdf.CellFormat(col1, 5, fmt.Sprintf("%d) %s", c.Numero, c.Fecha.Format(formatoFecha)), "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, c.MontoUSD.StringFixed(2), "", 0, "C", false, 0, "")
			pdf.CellFormat(col3, 5, c.MontoBs.StringFixed(2), "", 1, "R", false, 0, "")
		}
	}

	// ── Pie ──────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "¡Gracias por su compra!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: escribir archivo: %w", err)
	}

	return filePath, nil
}

// truncarNombre shortens a product name to max runes for the narrow item
// column. Rune-based so tildes and eñes never get split mid-character.
func truncarNombre(nombre string, max int) string {
	r := []rune(nombre)
	if len(r) <= max {
		return nombre
	}
	return string(r[:max-1]) + "…"
}

func formaPago(v *model.Venta) string {
	if v.MetodoPago == model.PagoCredito {
		if v.ProveedorCredito != nil {
			return "Crédito (" + *v.ProveedorCredito + ")"
		}
		return "Crédito"
	}
	return "Contado"
}
