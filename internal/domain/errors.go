package domain

// ValidationError сообщает о недопустимых входных данных записи.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
