// Package errs defines the sentinel error kinds shared across the FAST
// codec engine.
//
// The five failure kinds are UnexpectedEndOfStream, ProtocolViolation,
// CatalogError, RingOverflow and Shutdown. ErrCatalogNameCollision,
// ErrDecimalMissingSubfield and ErrUndefinedField wrap ErrCatalogError, so
// errors.Is matches both; ErrWouldBlock and ErrTableFull are further
// sentinels outside the five kinds. Callers should use errors.Is against
// these sentinels rather than string-matching error text.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOF is returned when the byte source is exhausted in the
	// middle of decoding a field (varint, PMap, or fixed-width payload).
	ErrUnexpectedEOF = errors.New("fast: unexpected end of stream")

	// ErrProtocolViolation is returned for varint overflow, PMap bit
	// underflow/overflow, a forbidden null on a mandatory field, or an
	// unknown template id.
	ErrProtocolViolation = errors.New("fast: protocol violation")

	// ErrCatalogError is returned when the catalog references an undefined
	// field, a dictionary name collision, or a decimal token missing one of
	// its two subfields.
	ErrCatalogError = errors.New("fast: catalog error")

	// ErrRingOverflow is reported only in non-blocking ring mode when the
	// producer cannot reserve fragment space; blocking mode spins instead.
	ErrRingOverflow = errors.New("fast: ring overflow")

	// ErrShutdown is the cooperative-cancellation kind. No package in this
	// module polls a shutdown flag or returns it.
	ErrShutdown = errors.New("fast: shutdown")

	// ErrWouldBlock is returned by a Source/Sink refill that has no data
	// available yet without blocking the calling goroutine.
	ErrWouldBlock = errors.New("fast: would block")

	// ErrTableFull is returned by longhash.Table.Insert once the table's
	// usable capacity is exhausted.
	ErrTableFull = errors.New("fast: hash table full")

	// ErrCatalogNameCollision wraps ErrCatalogError for the specific case
	// of two fields or templates sharing the same name within a scope
	// where names must be unique.
	ErrCatalogNameCollision = fmt.Errorf("%w: name collision", ErrCatalogError)

	// ErrDecimalMissingSubfield wraps ErrCatalogError for a decimal token
	// whose paired exponent or mantissa subfield is missing from the
	// compiled script, so the two can never be decoded together.
	ErrDecimalMissingSubfield = fmt.Errorf("%w: decimal missing subfield", ErrCatalogError)

	// ErrUndefinedField wraps ErrCatalogError for a script token that
	// references a dictionary slot no template ever allocated.
	ErrUndefinedField = fmt.Errorf("%w: undefined field", ErrCatalogError)
)

// DecodeError attaches the diagnostic context spec.md §7 requires to a
// decode-path failure: the kind (one of the sentinels above), the
// template, field, and byte offset where it occurred.
type DecodeError struct {
	Kind       error
	TemplateID uint32
	FieldID    uint32
	ByteOffset int64
	Msg        string
}

func (e *DecodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%v: template=%d field=%d offset=%d: %s", e.Kind, e.TemplateID, e.FieldID, e.ByteOffset, e.Msg)
	}

	return fmt.Sprintf("%v: template=%d field=%d offset=%d", e.Kind, e.TemplateID, e.FieldID, e.ByteOffset)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// NewDecodeError builds a DecodeError carrying full diagnostic context.
func NewDecodeError(kind error, templateID, fieldID uint32, byteOffset int64, msg string) *DecodeError {
	return &DecodeError{
		Kind:       kind,
		TemplateID: templateID,
		FieldID:    fieldID,
		ByteOffset: byteOffset,
		Msg:        msg,
	}
}

// CatalogErrorf wraps ErrCatalogError with a formatted message, keeping
// errors.Is(err, ErrCatalogError) working for callers further up the stack.
func CatalogErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCatalogError, fmt.Sprintf(format, args...))
}

// CatalogNameCollisionf wraps ErrCatalogNameCollision (and transitively
// ErrCatalogError) with a formatted message.
func CatalogNameCollisionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCatalogNameCollision, fmt.Sprintf(format, args...))
}

// DecimalMissingSubfieldf wraps ErrDecimalMissingSubfield with a formatted
// message.
func DecimalMissingSubfieldf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecimalMissingSubfield, fmt.Sprintf(format, args...))
}

// UndefinedFieldf wraps ErrUndefinedField with a formatted message.
func UndefinedFieldf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUndefinedField, fmt.Sprintf(format, args...))
}
