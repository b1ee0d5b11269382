package service

import "github.com/ivanoskov/nutrition_bot/internal/model"

// activityMultipliers коэффициенты активности для суточной нормы калорий
var activityMultipliers = map[model.ActivityLevel]float64{
	model.ActivitySedentary:  1.2,
	model.ActivityLight:      1.375,
	model.ActivityModerate:   1.55,
	model.ActivityActive:     1.725,
	model.ActivityVeryActive: 1.9,
}

const (
	waterLitersPerKg = 0.03

	proteinShare = 0.3
	fatShare     = 0.3
	carbsShare   = 0.4

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
)

// Macros суточная норма БЖУ в граммах
type Macros struct {
	ProteinGrams float64
	FatGrams     float64
	CarbsGrams   float64
}

// Calculation результат расчета, значения не округлены
type Calculation struct {
	Option      Option
	BasalKcal   float64
	EnergyKcal  float64
	WaterLiters float64
	Macros      Macros
}

func requireComplete(p model.Profile) error {
	if missing := p.Missing(); len(missing) > 0 {
		return &MissingDataError{Fields: missing}
	}
	return CheckProfile(p)
}

// BasalMetabolicRate считает базовый обмен по формуле Миффлина-Сан Жеора
func BasalMetabolicRate(p model.Profile) (float64, error) {
	if err := requireComplete(p); err != nil {
		return 0, err
	}
	bmr := 10*float64(*p.WeightKg) + 6.25*float64(*p.HeightCm) - 5*float64(*p.Age)
	switch *p.Sex {
	case model.SexMale:
		return bmr + 5, nil
	case model.SexFemale:
		return bmr - 161, nil
	}
	return 0, &UnknownOptionError{Field: FieldSex, Text: string(*p.Sex)}
}

// EnergyNeed суточная потребность в калориях с учетом активности
func EnergyNeed(p model.Profile) (float64, error) {
	bmr, err := BasalMetabolicRate(p)
	if err != nil {
		return 0, err
	}
	mult, ok := activityMultipliers[*p.Activity]
	if !ok {
		return 0, &UnknownOptionError{Field: FieldActivity, Text: string(*p.Activity)}
	}
	return bmr * mult, nil
}

// HydrationTarget рекомендуемый объем воды в литрах
func HydrationTarget(p model.Profile) (float64, error) {
	if err := requireComplete(p); err != nil {
		return 0, err
	}
	return float64(*p.WeightKg) * waterLitersPerKg, nil
}

// MacroSplit распределяет калории 30/30/40 и переводит в граммы
func MacroSplit(p model.Profile) (Macros, error) {
	kcal, err := EnergyNeed(p)
	if err != nil {
		return Macros{}, err
	}
	return Macros{
		ProteinGrams: kcal * proteinShare / kcalPerGramProtein,
		FatGrams:     kcal * fatShare / kcalPerGramFat,
		CarbsGrams:   kcal * carbsShare / kcalPerGramCarbs,
	}, nil
}

// Calculate выполняет расчет для пункта меню
func Calculate(p model.Profile, option Option) (*Calculation, error) {
	res := &Calculation{Option: option}
	var err error
	if res.BasalKcal, err = BasalMetabolicRate(p); err != nil {
		return nil, err
	}
	if res.EnergyKcal, err = EnergyNeed(p); err != nil {
		return nil, err
	}
	if res.WaterLiters, err = HydrationTarget(p); err != nil {
		return nil, err
	}
	if res.Macros, err = MacroSplit(p); err != nil {
		return nil, err
	}
	return res, nil
}
