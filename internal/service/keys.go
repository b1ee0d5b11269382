package service

import "github.com/ivanoskov/nutrition_bot/internal/model"

// Словарь команд и вариантов не зависит от языка: транспорт переводит
// подпись кнопки в ключ до вызова автомата.
const (
	CmdRestart    = "start"
	CmdRestartTG  = "/start"
	CmdSkip       = "navigation.skip"
	CmdBack       = "navigation.back"
	CmdEnter      = "menu.enter_params"
	CmdMenu       = "menu.calculations"
	CmdEditParams = "menu.edit_params"
)

const (
	KeyWelcome       = "welcome"
	KeyMenuTitle     = "calculation.menu.title"
	KeyEditTitle     = "menu.edit_params.title"
	KeyUnknownCmd    = "error.unknown_command"
	KeyInternalError = "error.internal"
)

var sexOptions = map[string]model.Sex{
	"param.sex.male":   model.SexMale,
	"param.sex.female": model.SexFemale,
}

// SexKey возвращает ключ подписи для значения пола
func SexKey(s model.Sex) string {
	return "param.sex." + string(s)
}

// ActivityKey возвращает ключ подписи для уровня активности
func ActivityKey(a model.ActivityLevel) string {
	return "param.activity." + string(a)
}

// FieldTitleKey ключ названия поля, он же кнопка в меню редактирования
func FieldTitleKey(f Field) string {
	return "param." + string(f) + ".title"
}

// Option пункт меню расчетов
type Option string

const (
	OptionWater    Option = "water"
	OptionCalories Option = "calories"
	OptionMacros   Option = "macros"
	OptionSodium   Option = "sodium"
)

// Options в порядке показа в меню
var Options = []Option{OptionWater, OptionCalories, OptionMacros, OptionSodium}

func (o Option) Key() string       { return "calculation." + string(o) }
func (o Option) ResultKey() string { return "calculation." + string(o) + ".result" }
func (o Option) InfoKey() string   { return "info." + string(o) }
func (o Option) InfoButton() string {
	return "info.button." + string(o)
}
