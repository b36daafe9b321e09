package model

// Cliente identifies the buyer on a sale. The autocomplete list is derived
// from the historical Ventas sheet, unique by cédula.
type Cliente struct {
	Nombre   string `json:"nombre"`
	Cedula   string `json:"cedula"`
	Telefono string `json:"telefono"`
}
