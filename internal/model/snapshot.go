package model

import "time"

// Snapshot полный снимок хранилища: профили и состояния по ID пользователя
type Snapshot struct {
	SavedAt    time.Time         `json:"savedAt"`
	Users      map[int64]Profile `json:"users"`
	UserStates map[int64]State   `json:"userStates"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Users:      make(map[int64]Profile),
		UserStates: make(map[int64]State),
	}
}
