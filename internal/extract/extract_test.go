package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	p := PlainText{}
	text, err := p.Extract("notas.txt", strings.NewReader("  evaluación inicial de Mia \n"))
	require.NoError(t, err)
	assert.Equal(t, "evaluación inicial de Mia", text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	p := PlainText{}
	for _, name := range []string{"informe.pdf", "informe.docx", "foto.png"} {
		_, err := p.Extract(name, strings.NewReader("binary"))
		assert.ErrorIs(t, err, ErrUnsupported, name)
	}
}

func TestExtractRespectsByteCap(t *testing.T) {
	p := PlainText{MaxBytes: 10}
	text, err := p.Extract("grande.txt", strings.NewReader(strings.Repeat("a", 100)))
	require.NoError(t, err)
	assert.Len(t, text, 10)
}

func TestExtractEmptyFileIsAnError(t *testing.T) {
	p := PlainText{}
	_, err := p.Extract("vacio.txt", strings.NewReader("   "))
	assert.Error(t, err)
}
