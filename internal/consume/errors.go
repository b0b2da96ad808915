package consume

import "errors"

var (
	ErrHandlerRequired     = errors.New("consume: handler function is required")
	ErrQueueRequired       = errors.New("consume: consume queue is required")
	ErrHandlerNameRequired = errors.New("consume: handler name is required")
	ErrHandlerFailed       = errors.New("consume: handler reported failure")
)

// UnprocessableOrderError marks a message that must be dead-lettered: either
// its payload could not be decoded or the handler declared it permanently
// failed. The poison-queue middleware matches this type.
type UnprocessableOrderError struct {
	payload string
	err     error
}

func (e *UnprocessableOrderError) Error() string {
	return "unprocessable order message: " + e.payload + " error: " + e.err.Error()
}

func (e *UnprocessableOrderError) Unwrap() error {
	return e.err
}
