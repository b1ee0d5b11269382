package model

import "errors"

// ErrNotFound пользователя нет в хранилище
var ErrNotFound = errors.New("user not found")

// ErrInvalidValue значение поля профиля вне допустимого набора или диапазона
var ErrInvalidValue = errors.New("invalid profile value")
