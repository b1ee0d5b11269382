package service

import (
	"fmt"
	"strings"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// InputError ошибка ввода, о которой автомат сообщает пользователю.
// Key возвращает ключ текста, Reason - стабильный код причины.
type InputError interface {
	error
	Key() string
	Reason() string
}

// Field параметр профиля
type Field string

const (
	FieldSex      Field = "sex"
	FieldAge      Field = "age"
	FieldWeight   Field = "weight"
	FieldHeight   Field = "height"
	FieldActivity Field = "activity"
)

// Bound граница диапазона, которую нарушило значение
type Bound int

const (
	BoundLow Bound = iota
	BoundHigh
)

// ParseError текст не является числом
type ParseError struct {
	Field Field
	Text  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q is not a number", e.Field, e.Text)
}

func (e *ParseError) Key() string    { return "error.invalid_number" }
func (e *ParseError) Reason() string { return "not_a_number" }

// RangeError число вне допустимого диапазона
type RangeError struct {
	Field Field
	Value int
	Min   int
	Max   int
	Bound Bound
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %d is outside [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Key() string {
	switch e.Field {
	case FieldAge:
		if e.Bound == BoundLow {
			return "error.invalid_age_range.young"
		}
		return "error.invalid_age_range.old"
	case FieldWeight:
		if e.Bound == BoundLow {
			return "error.invalid_weight_range.low"
		}
		return "error.invalid_weight_range.high"
	default:
		return "error.invalid_height_range"
	}
}

func (e *RangeError) Reason() string {
	switch e.Field {
	case FieldAge:
		if e.Bound == BoundLow {
			return "too_young"
		}
		return "too_old"
	case FieldWeight:
		if e.Bound == BoundLow {
			return "too_light"
		}
		return "too_heavy"
	default:
		return "out_of_range"
	}
}

// UnknownOptionError текст не совпал ни с командой, ни с вариантом ответа
type UnknownOptionError struct {
	Field Field
	Text  string
}

func (e *UnknownOptionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unknown option %q", e.Text)
	}
	return fmt.Sprintf("%s: unknown option %q", e.Field, e.Text)
}

func (e *UnknownOptionError) Key() string {
	switch e.Field {
	case FieldSex:
		return "error.invalid_sex"
	case FieldActivity:
		return "error.invalid_activity"
	default:
		return "error.invalid_option"
	}
}

func (e *UnknownOptionError) Reason() string {
	switch e.Field {
	case FieldSex:
		return "invalid_sex"
	case FieldActivity:
		return "invalid_activity"
	default:
		return "invalid_option"
	}
}

// MissingDataError расчет запрошен до заполнения профиля
type MissingDataError struct {
	Fields []string
}

func (e *MissingDataError) Error() string {
	return "missing data: " + strings.Join(e.Fields, ", ")
}

func (e *MissingDataError) Key() string    { return "error.missing_data" }
func (e *MissingDataError) Reason() string { return "missing_data" }

// UnknownStateError в хранилище оказалось состояние вне перечисления
type UnknownStateError struct {
	State model.State
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %s", e.State)
}

func (e *UnknownStateError) Key() string    { return "error.unknown_command" }
func (e *UnknownStateError) Reason() string { return "unknown_state" }
