package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/ivanoskov/nutrition_bot/internal/service"
)

// ChartGenerator рисует графики к результатам расчетов
type ChartGenerator struct {
	Width  int
	Height int
}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{Width: 800, Height: 500}
}

// MacroLabels переведенные подписи для диаграммы БЖУ
type MacroLabels struct {
	Protein string
	Fat     string
	Carbs   string
	Grams   string
}

// EnergyLabels переведенные подписи для графика калорий
type EnergyLabels struct {
	Title  string
	Basal  string
	Energy string
	Kcal   string
}

func (g *ChartGenerator) background() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    40,
			Left:   40,
			Right:  40,
			Bottom: 40,
		},
		FillColor: chart.ColorWhite,
	}
}

// GenerateMacroPieChart создает круговую диаграмму БЖУ в граммах
func (g *ChartGenerator) GenerateMacroPieChart(m service.Macros, labels MacroLabels) ([]byte, error) {
	if m.ProteinGrams <= 0 && m.FatGrams <= 0 && m.CarbsGrams <= 0 {
		return nil, nil
	}

	slice := func(name string, grams float64, color chart.Style) chart.Value {
		color.FontSize = 14
		color.FontColor = chart.ColorBlack
		return chart.Value{
			Label: fmt.Sprintf("%s: %.0f %s", name, grams, labels.Grams),
			Value: grams,
			Style: color,
		}
	}

	pie := chart.PieChart{
		Width:      g.Width,
		Height:     g.Height,
		Background: g.background(),
		Values: []chart.Value{
			slice(labels.Protein, m.ProteinGrams, chart.Style{FillColor: chart.ColorRed.WithAlpha(180)}),
			slice(labels.Fat, m.FatGrams, chart.Style{FillColor: chart.ColorYellow.WithAlpha(200)}),
			slice(labels.Carbs, m.CarbsGrams, chart.Style{FillColor: chart.ColorGreen.WithAlpha(180)}),
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render macro chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// GenerateEnergyChart сравнивает базовый обмен и суточную норму с учетом активности
func (g *ChartGenerator) GenerateEnergyChart(c *service.Calculation, labels EnergyLabels) ([]byte, error) {
	if c == nil || c.EnergyKcal <= 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title: labels.Title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:      g.Width,
		Height:     g.Height,
		BarWidth:   120,
		Background: g.background(),
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f %s", v.(float64), labels.Kcal)
			},
		},
		Bars: []chart.Value{
			{
				Label: fmt.Sprintf("%s: %.0f", labels.Basal, c.BasalKcal),
				Value: c.BasalKcal,
				Style: chart.Style{FillColor: chart.ColorBlue.WithAlpha(120), StrokeColor: chart.ColorBlue},
			},
			{
				Label: fmt.Sprintf("%s: %.0f", labels.Energy, c.EnergyKcal),
				Value: c.EnergyKcal,
				Style: chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue},
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render energy chart: %w", err)
	}
	return buffer.Bytes(), nil
}
