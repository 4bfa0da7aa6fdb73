package types

import "time"

// ToastLevel is a notification's severity, in escalating order.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Toast is a transient notification; it disappears once Expires passes.
type Toast struct {
	Level   ToastLevel
	Message string
	Expires time.Time
}
