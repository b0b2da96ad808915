// Package order defines the message envelope exchanged between the
// producer and consumer processes.
package order

import (
	"fmt"

	"orderpipe/internal/codec"
)

// Schema identification for the order envelope. The kind and version travel
// as message metadata so consumers never infer the payload shape from a
// runtime type name.
const (
	Kind          = "order"
	SchemaVersion = "v1"
)

// Metadata keys stamped on every published order message.
const (
	MetadataKeyKind          = "schema_kind"
	MetadataKeySchemaVersion = "schema_version"
	MetadataKeyCorrelationID = "correlation_id"
	MetadataKeyPublishedAt   = "published_at"
)

// Order is the unit of data exchanged between producer and consumer. It is
// immutable once constructed. The ID is caller-supplied and is neither
// validated nor deduplicated; Product and Price are opaque to the pipeline.
type Order struct {
	ID      int64   `json:"id"`
	Product string  `json:"product"`
	Price   float64 `json:"price"`
}

// Encode serialises the order into its wire representation.
func Encode(o Order) ([]byte, error) {
	payload, err := codec.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	return payload, nil
}

// Decode parses a wire payload back into an Order. Malformed payloads
// return a *DeserializationError so the dispatcher can dead-letter them
// instead of losing them.
func Decode(payload []byte) (Order, error) {
	var o Order
	if err := codec.Unmarshal(payload, &o); err != nil {
		return Order{}, &DeserializationError{payload: string(payload), err: err}
	}
	return o, nil
}

// DeserializationError wraps payloads that could not be parsed into an Order.
type DeserializationError struct {
	payload string
	err     error
}

func (e *DeserializationError) Error() string {
	return "undecodable order payload: " + e.payload + " error: " + e.err.Error()
}

func (e *DeserializationError) Unwrap() error {
	return e.err
}
