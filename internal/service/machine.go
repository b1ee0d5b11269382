package service

import (
	"strings"

	"github.com/ivanoskov/nutrition_bot/internal/model"
)

// step описывает состояние ожидания одного параметра
type step struct {
	field    Field
	question string
	keyboard func() [][]Button
	apply    func(p model.Profile, text string) (model.Profile, error)
}

// fieldOrder порядок вопросов сценария
var fieldOrder = []model.State{
	model.StateAwaitingSex,
	model.StateAwaitingAge,
	model.StateAwaitingWeight,
	model.StateAwaitingHeight,
	model.StateAwaitingActivity,
}

var steps = map[model.State]step{
	model.StateAwaitingSex: {
		field:    FieldSex,
		question: "param.sex.question",
		keyboard: func() [][]Button {
			return [][]Button{keys(SexKey(model.SexMale), SexKey(model.SexFemale)), navigationRow()}
		},
		apply: func(p model.Profile, text string) (model.Profile, error) {
			sex, err := ParseSex(text)
			if err != nil {
				return p, err
			}
			return p.WithSex(sex), nil
		},
	},
	model.StateAwaitingAge: {
		field:    FieldAge,
		question: "param.age.question",
		keyboard: func() [][]Button { return [][]Button{navigationRow()} },
		apply: func(p model.Profile, text string) (model.Profile, error) {
			age, err := ParseAge(text)
			if err != nil {
				return p, err
			}
			return p.WithAge(age), nil
		},
	},
	model.StateAwaitingWeight: {
		field:    FieldWeight,
		question: "param.weight.question",
		keyboard: func() [][]Button {
			return append(presetRows(40, 100, 5, 4, "metric.kg"), navigationRow())
		},
		apply: func(p model.Profile, text string) (model.Profile, error) {
			kg, err := ParseWeight(text)
			if err != nil {
				return p, err
			}
			return p.WithWeight(kg), nil
		},
	},
	model.StateAwaitingHeight: {
		field:    FieldHeight,
		question: "param.height.question",
		keyboard: func() [][]Button {
			return append(presetRows(140, 200, 5, 4, "metric.cm"), navigationRow())
		},
		apply: func(p model.Profile, text string) (model.Profile, error) {
			cm, err := ParseHeight(text)
			if err != nil {
				return p, err
			}
			return p.WithHeight(cm), nil
		},
	},
	model.StateAwaitingActivity: {
		field:    FieldActivity,
		question: "param.activity.question",
		keyboard: func() [][]Button {
			return [][]Button{
				keys(ActivityKey(model.ActivitySedentary), ActivityKey(model.ActivityLight)),
				keys(ActivityKey(model.ActivityModerate), ActivityKey(model.ActivityActive)),
				keys(ActivityKey(model.ActivityVeryActive)),
				navigationRow(),
			}
		},
		apply: func(p model.Profile, text string) (model.Profile, error) {
			level, err := ParseActivity(text)
			if err != nil {
				return p, err
			}
			return p.WithActivity(level), nil
		},
	},
}

// editTargets кнопки меню редактирования и состояния, в которые они ведут
var editTargets = map[string]model.State{
	FieldTitleKey(FieldSex):      model.StateAwaitingSex,
	FieldTitleKey(FieldAge):      model.StateAwaitingAge,
	FieldTitleKey(FieldWeight):   model.StateAwaitingWeight,
	FieldTitleKey(FieldHeight):   model.StateAwaitingHeight,
	FieldTitleKey(FieldActivity): model.StateAwaitingActivity,
}

// Next возвращает следующее состояние сценария
func Next(s model.State) model.State {
	for i, st := range fieldOrder {
		if st == s && i+1 < len(fieldOrder) {
			return fieldOrder[i+1]
		}
	}
	return model.StateMenuReady
}

// Previous возвращает предыдущее состояние, для первого вопроса это Idle
func Previous(s model.State) model.State {
	for i, st := range fieldOrder {
		if st == s && i > 0 {
			return fieldOrder[i-1]
		}
	}
	return model.StateIdle
}

// Machine конечный автомат сценария ввода параметров.
// Не обращается к хранилищу: результат сохраняет вызывающий код.
type Machine struct{}

func NewMachine() *Machine {
	return &Machine{}
}

// Advance обрабатывает ввод пользователя в состоянии state и возвращает новое
// состояние, новый профиль и ответ. При ошибке ввода состояние и профиль не меняются.
func (m *Machine) Advance(state model.State, p model.Profile, text string) (model.State, model.Profile, Reply) {
	text = strings.TrimSpace(text)

	if text == CmdRestart || text == CmdRestartTG {
		reply := m.Prompt(model.StateAwaitingSex)
		reply.Keys = append([]string{KeyWelcome}, reply.Keys...)
		return model.StateAwaitingSex, p, reply
	}

	if !state.Valid() {
		err := &UnknownStateError{State: state}
		return state, p, Reply{Keys: []string{err.Key()}, Keyboard: startKeyboard(), Err: err}
	}

	switch state {
	case model.StateIdle:
		return m.advanceIdle(p, text)
	case model.StateMenuReady:
		return m.advanceMenu(p, text)
	default:
		return m.advanceField(state, p, text)
	}
}

// Prompt ответ при входе в состояние
func (m *Machine) Prompt(state model.State) Reply {
	switch state {
	case model.StateIdle:
		return Reply{Keys: []string{KeyWelcome}, Keyboard: startKeyboard()}
	case model.StateMenuReady:
		return Reply{Keys: []string{KeyMenuTitle}, Keyboard: menuKeyboard(), Summary: true}
	}
	if st, ok := steps[state]; ok {
		return Reply{Keys: []string{st.question}, Keyboard: st.keyboard()}
	}
	return Reply{Keys: []string{KeyUnknownCmd}, Keyboard: startKeyboard()}
}

func (m *Machine) advanceIdle(p model.Profile, text string) (model.State, model.Profile, Reply) {
	switch text {
	case CmdEnter:
		return model.StateAwaitingSex, p, m.Prompt(model.StateAwaitingSex)
	case CmdMenu:
		return model.StateMenuReady, p, m.Prompt(model.StateMenuReady)
	}
	err := &UnknownOptionError{Text: text}
	reply := m.Prompt(model.StateIdle)
	reply.Keys = append([]string{err.Key()}, reply.Keys...)
	reply.Err = err
	return model.StateIdle, p, reply
}

func (m *Machine) advanceField(state model.State, p model.Profile, text string) (model.State, model.Profile, Reply) {
	st := steps[state]

	// Команды навигации проверяются раньше значения поля
	switch text {
	case CmdSkip:
		next := Next(state)
		return next, p, m.Prompt(next)
	case CmdBack:
		prev := Previous(state)
		return prev, p, m.Prompt(prev)
	}

	updated, err := st.apply(p, text)
	if err != nil {
		inputErr, ok := err.(InputError)
		if !ok {
			inputErr = &UnknownOptionError{Field: st.field, Text: text}
		}
		return state, p, Reply{Keys: []string{inputErr.Key()}, Keyboard: st.keyboard(), Err: inputErr}
	}

	next := Next(state)
	return next, updated, m.Prompt(next)
}

func (m *Machine) advanceMenu(p model.Profile, text string) (model.State, model.Profile, Reply) {
	state := model.StateMenuReady

	switch text {
	case CmdMenu:
		return state, p, m.Prompt(state)
	case CmdEditParams:
		return state, p, Reply{Keys: []string{KeyEditTitle}, Keyboard: editKeyboard()}
	}

	if target, ok := editTargets[text]; ok {
		return target, p, m.Prompt(target)
	}

	for _, opt := range Options {
		switch text {
		case opt.InfoButton():
			return state, p, Reply{Keys: []string{opt.InfoKey()}, Keyboard: resultKeyboard()}
		case opt.Key():
			return state, p, m.calculate(p, opt)
		}
	}

	err := &UnknownOptionError{Text: text}
	return state, p, Reply{Keys: []string{err.Key()}, Keyboard: menuKeyboard(), Err: err}
}

func (m *Machine) calculate(p model.Profile, opt Option) Reply {
	if opt == OptionSodium {
		return Reply{Keys: []string{opt.InfoKey()}, Keyboard: resultKeyboard()}
	}

	res, err := Calculate(p, opt)
	if err != nil {
		inputErr, ok := err.(InputError)
		if !ok {
			inputErr = &MissingDataError{Fields: p.Missing()}
		}
		return Reply{Keys: []string{inputErr.Key()}, Keyboard: menuKeyboard(), Err: inputErr}
	}
	return Reply{
		Keys:        []string{opt.ResultKey()},
		Keyboard:    resultKeyboard(opt.InfoButton()),
		Calculation: res,
	}
}
