package model

import "fmt"

// State положение пользователя в сценарии ввода параметров
type State int

const (
	StateIdle State = iota
	StateAwaitingSex
	StateAwaitingAge
	StateAwaitingWeight
	StateAwaitingHeight
	StateAwaitingActivity
	StateMenuReady
)

// StateInvalid получают значения, прочитанные из хранилища, но не входящие в перечисление.
const StateInvalid State = -1

var stateNames = map[State]string{
	StateIdle:             "IDLE",
	StateAwaitingSex:      "AWAITING_SEX",
	StateAwaitingAge:      "AWAITING_AGE",
	StateAwaitingWeight:   "AWAITING_WEIGHT",
	StateAwaitingHeight:   "AWAITING_HEIGHT",
	StateAwaitingActivity: "AWAITING_ACTIVITY",
	StateMenuReady:        "MENU_READY",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// ParseState разбирает имя состояния. Для неизвестного имени возвращает StateInvalid и ошибку.
func ParseState(name string) (State, error) {
	for state, n := range stateNames {
		if n == name {
			return state, nil
		}
	}
	return StateInvalid, fmt.Errorf("unknown state %q", name)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText не возвращает ошибку на неизвестное имя: такое состояние
// должно дойти до автомата и быть обработано там.
func (s *State) UnmarshalText(text []byte) error {
	*s, _ = ParseState(string(text))
	return nil
}
