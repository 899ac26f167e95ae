package expr

import "errors"

// ErrSyntax — базовая ошибка синтаксиса recurrence-выражения.
// Все *SyntaxError разворачиваются в неё через errors.Is.
var ErrSyntax = errors.New("invalid recurrence expression")

// SyntaxError — синтаксическая ошибка с контекстом.
//
// Token содержит оскорбляющий токен или фрагмент выражения,
// чтобы вызывающая сторона могла указать пользователю на место ошибки.
type SyntaxError struct {
	// Token — токен/фрагмент, вызвавший ошибку. Может быть пустым.
	Token string

	// Message — описание ошибки.
	Message string
}

// Error реализует интерфейс error.
func (e *SyntaxError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// syntaxError создаёт SyntaxError для токена token.
func syntaxError(token, message string) *SyntaxError {
	return &SyntaxError{Token: token, Message: message}
}
