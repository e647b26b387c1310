package catalog

import (
	"github.com/fastcodec/fast/format"
	"github.com/fastcodec/fast/token"
)

// EventKind identifies one step of a flattened template-definition event
// stream, the shape an external XML (or any other schema format) SAX-style
// driver feeds into Load.
type EventKind uint8

const (
	EventTemplateStart EventKind = iota
	EventTemplateEnd
	EventInt32Field
	EventInt64Field
	EventDecimalField
	EventAsciiTextField
	EventUnicodeTextField
	EventByteVectorField
	EventGroupStart
	EventSequenceStart
	EventGroupEnd

	// EventSetTemplateIDMode configures how Reactor/DynamicWriter resolve a
	// message's leading template id; see Event.TemplateIDMode. It is
	// optional, takes effect for the whole stream regardless of when it
	// arrives, and defaults to TemplateIDExplicit if never sent.
	EventSetTemplateIDMode
)

// Event is one step of the stream Load consumes. Not every field is
// meaningful for every Kind; see Load for which fields each Kind reads.
type Event struct {
	Kind       EventKind
	Name       string
	TemplateID int32
	Operator   token.Operator
	Optional   bool

	// TemplateIDMode and, reusing TemplateID as the default template id,
	// only meaningful on an EventSetTemplateIDMode event.
	TemplateIDMode format.TemplateIDMode

	// Reset marks this field as belonging to its template's explicit
	// reset group: its dictionary slot is restored to its initial value
	// (or Undefined) whenever the reactor executes a reset boundary for
	// this template, independent of its operator.
	Reset bool

	HasIntInit bool
	IntInit    int64

	HasBytesInit bool
	BytesInit    []byte
}

// TokenEventStream is the narrow interface Load consumes. Next returns
// ok=false once the stream is exhausted; the XML parsing (or any other
// schema format) that produces events is an external collaborator this
// module never imports.
type TokenEventStream interface {
	Next() (Event, bool)
}

// SliceStream is a TokenEventStream over a pre-built slice, useful for
// tests and for hosts that already have a fully parsed event list.
type SliceStream struct {
	events []Event
	pos    int
}

// NewSliceStream creates a TokenEventStream over events.
func NewSliceStream(events []Event) *SliceStream {
	return &SliceStream{events: events}
}

func (s *SliceStream) Next() (Event, bool) {
	if s.pos >= len(s.events) {
		return Event{}, false
	}

	e := s.events[s.pos]
	s.pos++

	return e, true
}
