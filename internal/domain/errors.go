package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPaymentInput платежные данные не соответствуют способу оплаты
	ErrInvalidPaymentInput = errors.New("invalid payment input")

	// ErrInvalidOperation неверная операция
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrExternalProvider вызов платежного провайдера завершился ошибкой
	ErrExternalProvider = errors.New("external payment provider error")
)

// PaymentInputError описывает отсутствующие или лишние платежные данные
// для выбранного способа оплаты.
type PaymentInputError struct {
	Method  PaymentMethod
	Field   string
	Message string
}

// Error реализует интерфейс error
func (e *PaymentInputError) Error() string {
	return fmt.Sprintf("invalid payment input for method %q: %s - %s", e.Method, e.Field, e.Message)
}

// Is проверяет, является ли ошибка ошибкой платежных данных
func (e *PaymentInputError) Is(target error) bool {
	return target == ErrInvalidPaymentInput
}

// NewPaymentInputError создает новую ошибку платежных данных
func NewPaymentInputError(method PaymentMethod, field, message string) *PaymentInputError {
	return &PaymentInputError{
		Method:  method,
		Field:   field,
		Message: message,
	}
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// ExternalServiceError представляет ошибку внешнего сервиса.
// Ошибки провайдера не ретраятся и поднимаются вызывающему как есть.
type ExternalServiceError struct {
	Service     string
	Code        string
	Message     string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ExternalServiceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s service error [%s]: %s: %v", e.Service, e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s service error [%s]: %s", e.Service, e.Code, e.Message)
}

// Is проверяет, является ли ошибка ошибкой внешнего провайдера
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalProvider
}

// Unwrap возвращает оригинальную ошибку
func (e *ExternalServiceError) Unwrap() error {
	return e.OriginalErr
}

// NewExternalServiceError создает новую ошибку внешнего сервиса
func NewExternalServiceError(service, code, message string, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:     service,
		Code:        code,
		Message:     message,
		OriginalErr: err,
	}
}
