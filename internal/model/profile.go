package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sex пол пользователя
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// UnmarshalText принимает только известные значения пола
func (s *Sex) UnmarshalText(text []byte) error {
	v := Sex(text)
	if !v.Valid() {
		return fmt.Errorf("%w: sex %q", ErrInvalidValue, v)
	}
	*s = v
	return nil
}

// ActivityLevel уровень физической активности, от минимального к максимальному
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ActivityLevels перечисляет уровни в порядке возрастания нагрузки
var ActivityLevels = []ActivityLevel{
	ActivitySedentary,
	ActivityLight,
	ActivityModerate,
	ActivityActive,
	ActivityVeryActive,
}

func (a ActivityLevel) Valid() bool {
	for _, level := range ActivityLevels {
		if a == level {
			return true
		}
	}
	return false
}

// UnmarshalText принимает только известные уровни активности
func (a *ActivityLevel) UnmarshalText(text []byte) error {
	v := ActivityLevel(text)
	if !v.Valid() {
		return fmt.Errorf("%w: activity level %q", ErrInvalidValue, v)
	}
	*a = v
	return nil
}

// Допустимые диапазоны параметров
const (
	MinAge    = 14
	MaxAge    = 100
	MinWeight = 30
	MaxWeight = 250
	MinHeight = 130
	MaxHeight = 220
)

// Profile хранит параметры пользователя. Незаданное поле равно nil.
type Profile struct {
	UserID   int64          `json:"chatId"`
	Sex      *Sex           `json:"sex,omitempty"`
	Age      *int           `json:"age,omitempty"`
	WeightKg *int           `json:"weight,omitempty"`
	HeightCm *int           `json:"height,omitempty"`
	Activity *ActivityLevel `json:"activityLevel,omitempty"`
}

// NewProfile создает пустой профиль
func NewProfile(userID int64) Profile {
	return Profile{UserID: userID}
}

// WithSex, WithAge и остальные возвращают копию профиля с новым значением поля.
func (p Profile) WithSex(sex Sex) Profile {
	p.Sex = &sex
	return p
}

func (p Profile) WithAge(age int) Profile {
	p.Age = &age
	return p
}

func (p Profile) WithWeight(kg int) Profile {
	p.WeightKg = &kg
	return p
}

func (p Profile) WithHeight(cm int) Profile {
	p.HeightCm = &cm
	return p
}

func (p Profile) WithActivity(level ActivityLevel) Profile {
	p.Activity = &level
	return p
}

// Missing возвращает названия незаполненных полей
func (p Profile) Missing() []string {
	var missing []string
	if p.Sex == nil {
		missing = append(missing, "sex")
	}
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.WeightKg == nil {
		missing = append(missing, "weight")
	}
	if p.HeightCm == nil {
		missing = append(missing, "height")
	}
	if p.Activity == nil {
		missing = append(missing, "activity")
	}
	return missing
}

func (p Profile) Complete() bool {
	return len(p.Missing()) == 0
}

// Validate проверяет заданные поля. Незаданные поля допустимы.
func (p Profile) Validate() error {
	if p.Sex != nil && !p.Sex.Valid() {
		return fmt.Errorf("%w: sex %q", ErrInvalidValue, *p.Sex)
	}
	if p.Activity != nil && !p.Activity.Valid() {
		return fmt.Errorf("%w: activity level %q", ErrInvalidValue, *p.Activity)
	}
	if err := checkRange("age", p.Age, MinAge, MaxAge); err != nil {
		return err
	}
	if err := checkRange("weight", p.WeightKg, MinWeight, MaxWeight); err != nil {
		return err
	}
	return checkRange("height", p.HeightCm, MinHeight, MaxHeight)
}

func checkRange(name string, v *int, min, max int) error {
	if v != nil && (*v < min || *v > max) {
		return fmt.Errorf("%w: %s %d outside [%d, %d]", ErrInvalidValue, name, *v, min, max)
	}
	return nil
}

// Equal сравнивает профили по значениям, а не по указателям
func (p Profile) Equal(o Profile) bool {
	a, _ := json.Marshal(p)
	b, _ := json.Marshal(o)
	return string(a) == string(b)
}

func (p Profile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile{user=%d", p.UserID)
	if p.Sex != nil {
		fmt.Fprintf(&b, " sex=%s", *p.Sex)
	}
	if p.Age != nil {
		fmt.Fprintf(&b, " age=%d", *p.Age)
	}
	if p.WeightKg != nil {
		fmt.Fprintf(&b, " weight=%d", *p.WeightKg)
	}
	if p.HeightCm != nil {
		fmt.Fprintf(&b, " height=%d", *p.HeightCm)
	}
	if p.Activity != nil {
		fmt.Fprintf(&b, " activity=%s", *p.Activity)
	}
	b.WriteString("}")
	return b.String()
}

// Clone копирует профиль вместе со значениями полей
func (p Profile) Clone() Profile {
	c := Profile{UserID: p.UserID}
	if p.Sex != nil {
		c = c.WithSex(*p.Sex)
	}
	if p.Age != nil {
		c = c.WithAge(*p.Age)
	}
	if p.WeightKg != nil {
		c = c.WithWeight(*p.WeightKg)
	}
	if p.HeightCm != nil {
		c = c.WithHeight(*p.HeightCm)
	}
	if p.Activity != nil {
		c = c.WithActivity(*p.Activity)
	}
	return c
}
