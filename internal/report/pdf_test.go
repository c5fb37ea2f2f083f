package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argo-assistant/pkg"
)

func TestRenderProducesPDF(t *testing.T) {
	g := NewGenerator()
	data, err := g.Render("Mia", 9, []pkg.MetricResult{
		{Name: "Atención", Pre: 3, Post: 7},
		{Name: "Memoria", Pre: 5, Post: 6},
		{Name: "Planificación", Pre: 1, Post: 9},
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.Greater(t, len(data), 1000)
}

func TestRenderHandlesNoMetrics(t *testing.T) {
	g := NewGenerator()
	data, err := g.Render("Paciente", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
