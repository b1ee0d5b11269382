package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// Допустимые диапазоны параметров
const (
	MinAge    = model.MinAge
	MaxAge    = model.MaxAge
	MinWeight = model.MinWeight
	MaxWeight = model.MaxWeight
	MinHeight = model.MinHeight
	MaxHeight = model.MaxHeight
)

// Число, за которым может идти единица измерения: "80", "80 kg", "25 лет".
var numberPattern = regexp.MustCompile(`^(\d{1,9})\s*\D*$`)

func parseNumber(field Field, text string) (int, error) {
	m := numberPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, &ParseError{Field: field, Text: text}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &ParseError{Field: field, Text: text}
	}
	return n, nil
}

func parseInRange(field Field, text string, min, max int) (int, error) {
	n, err := parseNumber(field, text)
	if err != nil {
		return 0, err
	}
	if n < min {
		return 0, &RangeError{Field: field, Value: n, Min: min, Max: max, Bound: BoundLow}
	}
	if n > max {
		return 0, &RangeError{Field: field, Value: n, Min: min, Max: max, Bound: BoundHigh}
	}
	return n, nil
}

func ParseAge(text string) (int, error) {
	return parseInRange(FieldAge, text, MinAge, MaxAge)
}

func ParseWeight(text string) (int, error) {
	return parseInRange(FieldWeight, text, MinWeight, MaxWeight)
}

func ParseHeight(text string) (int, error) {
	return parseInRange(FieldHeight, text, MinHeight, MaxHeight)
}

// ParseSex принимает только ключи вариантов param.sex.*
func ParseSex(text string) (model.Sex, error) {
	if sex, ok := sexOptions[strings.TrimSpace(text)]; ok {
		return sex, nil
	}
	return "", &UnknownOptionError{Field: FieldSex, Text: text}
}

// ParseActivity принимает только ключи вариантов param.activity.*
func ParseActivity(text string) (model.ActivityLevel, error) {
	text = strings.TrimSpace(text)
	for _, level := range model.ActivityLevels {
		if ActivityKey(level) == text {
			return level, nil
		}
	}
	return "", &UnknownOptionError{Field: FieldActivity, Text: text}
}

// CheckProfile проверяет профиль, пришедший не из автомата, и сообщает
// об ошибке так же, как при вводе поля.
func CheckProfile(p model.Profile) error {
	if p.Sex != nil && !p.Sex.Valid() {
		return &UnknownOptionError{Field: FieldSex, Text: string(*p.Sex)}
	}
	if p.Activity != nil && !p.Activity.Valid() {
		return &UnknownOptionError{Field: FieldActivity, Text: string(*p.Activity)}
	}
	for _, f := range []struct {
		field    Field
		value    *int
		min, max int
	}{
		{FieldAge, p.Age, MinAge, MaxAge},
		{FieldWeight, p.WeightKg, MinWeight, MaxWeight},
		{FieldHeight, p.HeightCm, MinHeight, MaxHeight},
	} {
		if f.value == nil {
			continue
		}
		if *f.value < f.min {
			return &RangeError{Field: f.field, Value: *f.value, Min: f.min, Max: f.max, Bound: BoundLow}
		}
		if *f.value > f.max {
			return &RangeError{Field: f.field, Value: *f.value, Min: f.min, Max: f.max, Bound: BoundHigh}
		}
	}
	return nil
}
