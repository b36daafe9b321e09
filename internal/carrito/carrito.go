// Package carrito models the sale in progress as an explicit, serializable
// state structure. Every mutation goes through a named transition; handlers
// never poke fields directly. The struct marshals to JSON as-is, which is how
// it is persisted per terminal in Redis between requests.
package carrito

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ojedapedro/aci-tpv-movilnet/internal/model"
	"github.com/ojedapedro/aci-tpv-movilnet/internal/moneda"
)

var (
	ErrCantidadInvalida  = errors.New("la cantidad debe ser mayor que cero")
	ErrMetodoInvalido    = errors.New("método de pago inválido")
	ErrTasaYaFijada      = errors.New("la tasa de cambio ya fue fijada para esta venta")
	ErrTasaInvalida      = errors.New("la tasa de cambio debe ser mayor que cero")
	ErrCarritoVacio      = errors.New("el carrito no tiene productos")
	ErrClienteIncompleto = errors.New("faltan datos del cliente (nombre, cédula y teléfono)")
	ErrSinTasa           = errors.New("debe fijar la tasa de cambio antes de cobrar")
)

// Item is one cart line. Price is snapshotted when the line is added so a
// later catalog refresh never changes a sale under the operator's hands.
type Item struct {
	Codigo    string          `json:"codigo"`
	Nombre    string          `json:"nombre"`
	PrecioUSD decimal.Decimal `json:"precio_usd"`
	Cantidad  int             `json:"cantidad"`
}

// Carrito is the full state of one terminal's sale in progress.
type Carrito struct {
	Items            []Item          `json:"items"`
	Cliente          model.Cliente   `json:"cliente"`
	MetodoPago       string          `json:"metodo_pago"`
	ProveedorCredito string          `json:"proveedor_credito"`
	Tasa             decimal.Decimal `json:"tasa"`
	Observaciones    string          `json:"observaciones"`
	CreadoEn         time.Time       `json:"creado_en"`
}

// Nuevo returns an empty cart paying al contado, with no rate fixed yet.
func Nuevo() *Carrito {
	return &Carrito{
		MetodoPago: model.PagoContado,
		CreadoEn:   time.Now(),
	}
}

// FijarTasa sets the session exchange rate. The rate is immutable for the
// duration of one sale: re-fixing requires a Reset first.
func (c *Carrito) FijarTasa(tasa decimal.Decimal) error {
	if !tasa.IsPositive() {
		return ErrTasaInvalida
	}
	if !c.Tasa.IsZero() {
		return ErrTasaYaFijada
	}
	c.Tasa = tasa
	return nil
}

// AgregarItem adds cantidad units of a product, merging with an existing line
// for the same código.
func (c *Carrito) AgregarItem(p model.Producto, cantidad int) error {
	if cantidad <= 0 {
		return ErrCantidadInvalida
	}
	for i := range c.Items {
		if c.Items[i].Codigo == p.Codigo {
			c.Items[i].Cantidad += cantidad
			return nil
		}
	}
	c.Items = append(c.Items, Item{
		Codigo:    p.Codigo,
		Nombre:    p.Nombre,
		PrecioUSD: p.PrecioUSD,
		Cantidad:  cantidad,
	})
	return nil
}

// QuitarItem removes the line with the given código. Returns false when the
// code is not in the cart.
func (c *Carrito) QuitarItem(codigo string) bool {
	for i := range c.Items {
		if c.Items[i].Codigo == codigo {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// SeleccionarCliente fills the buyer identity, typically from autocomplete.
func (c *Carrito) SeleccionarCliente(cl model.Cliente) {
	c.Cliente = cl
}

// FijarMetodoPago switches between contado and credito. The provider only
// applies to credit sales and is cleared when switching back to contado.
func (c *Carrito) FijarMetodoPago(metodo, proveedor string) error {
	switch metodo {
	case model.PagoContado:
		c.MetodoPago = metodo
		c.ProveedorCredito = ""
		return nil
	case model.PagoCredito:
		c.MetodoPago = metodo
		c.ProveedorCredito = proveedor
		return nil
	default:
		return ErrMetodoInvalido
	}
}

// FijarObservaciones replaces the free-text notes.
func (c *Carrito) FijarObservaciones(texto string) {
	c.Observaciones = texto
}

// TotalUSD is the sum of line subtotals.
func (c *Carrito) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.PrecioUSD.Mul(decimal.NewFromInt(int64(it.Cantidad))))
	}
	return total
}

// TotalBs converts TotalUSD at the session rate.
func (c *Carrito) TotalBs() decimal.Decimal {
	return moneda.Convertir(c.TotalUSD(), c.Tasa)
}

// Completo validates the cart is ready for checkout.
func (c *Carrito) Completo() error {
	if len(c.Items) == 0 {
		return ErrCarritoVacio
	}
	if c.Cliente.Nombre == "" || c.Cliente.Cedula == "" || c.Cliente.Telefono == "" {
		return ErrClienteIncompleto
	}
	if !c.Tasa.IsPositive() {
		return ErrSinTasa
	}
	return nil
}

// Reset clears the sale but keeps the session rate: the operator fixes the
// tasa once per shift, not once per customer.
func (c *Carrito) Reset() {
	tasa := c.Tasa
	*c = *Nuevo()
	c.Tasa = tasa
}
