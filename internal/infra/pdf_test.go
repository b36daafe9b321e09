package infra

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncarNombre(t *testing.T) {
	assert.Equal(t, "Forro transparente", truncarNombre("Forro transparente", 22))

	got := truncarNombre("Teléfono inteligente Ñandú 5G Pro Max", 22)
	assert.Equal(t, "Teléfono inteligente …", got)

	// Cutting inside a multibyte rune must never produce invalid UTF-8
	got = truncarNombre("Auriculares diseño añejo premium", 22)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 22, len([]rune(got)))
}
