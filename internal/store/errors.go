package store

import "errors"

// Общие ошибки хранилища.
var (
	// ErrNotFound — строка не найдена.
	ErrNotFound = errors.New("not found")

	// ErrNoTable — таблица ещё не существует.
	// Daemon трактует её как "событий пока не зарегистрировано"
	// и уходит в расширенный backoff вместо падения.
	ErrNoTable = errors.New("table does not exist")
)
