package service

import "strconv"

// Button кнопка клавиатуры. Value выводится перед переведенной подписью Key,
// например "70" + "kg".
type Button struct {
	Key   string
	Value string
}

// Reply указание транспорту: какие тексты показать и какие кнопки предложить.
// Тексты задаются ключами и переводятся на стороне транспорта.
type Reply struct {
	Keys        []string
	Keyboard    [][]Button
	Summary     bool
	Calculation *Calculation
	Err         InputError
}

func keys(k ...string) []Button {
	row := make([]Button, 0, len(k))
	for _, key := range k {
		row = append(row, Button{Key: key})
	}
	return row
}

// presetRows раскладывает предустановленные значения по count кнопок в ряд
func presetRows(from, to, step, count int, unitKey string) [][]Button {
	var rows [][]Button
	var row []Button
	for v := from; v <= to; v += step {
		row = append(row, Button{Key: unitKey, Value: strconv.Itoa(v)})
		if len(row) == count {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func startKeyboard() [][]Button {
	return [][]Button{keys(CmdEnter), keys(CmdMenu)}
}

func navigationRow() []Button {
	return keys(CmdSkip, CmdBack, CmdRestart)
}

func menuKeyboard() [][]Button {
	var rows [][]Button
	var row []Button
	for _, opt := range Options {
		row = append(row, Button{Key: opt.Key()})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, keys(CmdEditParams), keys(CmdRestart))
}

func editKeyboard() [][]Button {
	return [][]Button{
		keys(FieldTitleKey(FieldSex), FieldTitleKey(FieldAge)),
		keys(FieldTitleKey(FieldWeight), FieldTitleKey(FieldHeight)),
		keys(FieldTitleKey(FieldActivity)),
		keys(CmdMenu, CmdRestart),
	}
}

func resultKeyboard(extra ...string) [][]Button {
	return [][]Button{append(keys(CmdMenu, CmdRestart), keys(extra...)...)}
}
