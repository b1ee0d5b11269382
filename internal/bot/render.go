package bot

import (
	"fmt"
	"strings"

	"github.com/ivanoskov/nutrition_bot/internal/charts"
	"github.com/ivanoskov/nutrition_bot/internal/model"
	"github.com/ivanoskov/nutrition_bot/internal/service"
)

// renderText собирает текст ответа: сводка параметров, переведенные ключи,
// значения расчета.
func (b *Bot) renderText(lang string, out *service.Outcome) string {
	var parts []string
	if out.Reply.Summary {
		if summary := b.renderSummary(lang, out.Profile); summary != "" {
			parts = append(parts, summary)
		}
	}
	for _, key := range out.Reply.Keys {
		parts = append(parts, b.catalog.Get(lang, key))
	}
	if c := out.Reply.Calculation; c != nil {
		parts = append(parts, b.renderCalculation(lang, c))
	}
	return strings.Join(parts, "\n\n")
}

// renderSummary показывает только заполненные параметры
func (b *Bot) renderSummary(lang string, p model.Profile) string {
	t := func(key string) string { return b.catalog.Get(lang, key) }

	var lines []string
	line := func(field service.Field, value string) {
		lines = append(lines, fmt.Sprintf("%s: %s", t(service.FieldTitleKey(field)), value))
	}
	if p.Sex != nil {
		line(service.FieldSex, t(service.SexKey(*p.Sex)))
	}
	if p.Age != nil {
		line(service.FieldAge, fmt.Sprintf("%d", *p.Age))
	}
	if p.WeightKg != nil {
		line(service.FieldWeight, fmt.Sprintf("%d %s", *p.WeightKg, t("metric.kg")))
	}
	if p.HeightCm != nil {
		line(service.FieldHeight, fmt.Sprintf("%d %s", *p.HeightCm, t("metric.cm")))
	}
	if p.Activity != nil {
		line(service.FieldActivity, t(service.ActivityKey(*p.Activity)))
	}
	if len(lines) == 0 {
		return ""
	}
	return t("summary.title") + "\n" + strings.Join(lines, "\n")
}

func (b *Bot) renderCalculation(lang string, c *service.Calculation) string {
	t := func(key string) string { return b.catalog.Get(lang, key) }

	switch c.Option {
	case service.OptionWater:
		return fmt.Sprintf("%s *%.2f* %s", t("calculation.result.recommendation"), c.WaterLiters, t("metric.liters"))
	case service.OptionCalories:
		return fmt.Sprintf("%s *%.0f* %s", t("calculation.result.daily_needs"), c.EnergyKcal, t("metric.kcal"))
	case service.OptionMacros:
		grams := t("metric.grams")
		return strings.Join([]string{
			fmt.Sprintf("🥩 %s: *%.0f* %s", t("macros.protein"), c.Macros.ProteinGrams, grams),
			fmt.Sprintf("🥑 %s: *%.0f* %s", t("macros.fat"), c.Macros.FatGrams, grams),
			fmt.Sprintf("🍚 %s: *%.0f* %s", t("macros.carbs"), c.Macros.CarbsGrams, grams),
		}, "\n")
	}
	return ""
}

// renderChart возвращает PNG и имя файла. Для воды графика нет.
func (b *Bot) renderChart(lang string, c *service.Calculation) ([]byte, string, error) {
	t := func(key string) string { return b.catalog.Get(lang, key) }

	switch c.Option {
	case service.OptionMacros:
		png, err := b.charts.GenerateMacroPieChart(c.Macros, charts.MacroLabels{
			Protein: t("macros.protein"),
			Fat:     t("macros.fat"),
			Carbs:   t("macros.carbs"),
			Grams:   t("metric.grams"),
		})
		return png, "macros.png", err
	case service.OptionCalories:
		png, err := b.charts.GenerateEnergyChart(c, charts.EnergyLabels{
			Title:  t("chart.energy.title"),
			Basal:  t("chart.energy.basal"),
			Energy: t("chart.energy.total"),
			Kcal:   t("metric.kcal"),
		})
		return png, "calories.png", err
	}
	return nil, "", nil
}
