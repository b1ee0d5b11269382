package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/nutrition_bot/internal/service"
)

var pngHeader = []byte("\x89PNG")

func TestGenerateMacroPieChart(t *testing.T) {
	g := NewChartGenerator()
	png, err := g.GenerateMacroPieChart(service.Macros{ProteinGrams: 207, FatGrams: 92, CarbsGrams: 276},
		MacroLabels{Protein: "Белки", Fat: "Жиры", Carbs: "Углеводы", Grams: "г"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestGenerateMacroPieChartEmpty(t *testing.T) {
	png, err := NewChartGenerator().GenerateMacroPieChart(service.Macros{}, MacroLabels{})
	require.NoError(t, err)
	assert.Nil(t, png)
}

func TestGenerateEnergyChart(t *testing.T) {
	g := NewChartGenerator()
	png, err := g.GenerateEnergyChart(&service.Calculation{BasalKcal: 1780, EnergyKcal: 2759},
		EnergyLabels{Title: "Calories per day", Basal: "Basal", Energy: "Total", Kcal: "kcal"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))

	png, err = g.GenerateEnergyChart(nil, EnergyLabels{})
	require.NoError(t, err)
	assert.Nil(t, png)
}
