package transfer

import (
	"context"
	"fmt"

	"github.com/vrsandeep/xmlup/internal/markup"
	"github.com/vrsandeep/xmlup/internal/models"
)

// UnknownError is reported when a transport fails without a reason.
const UnknownError = "unknown error"

// ProgressFunc receives byte-level progress for one transfer. Transports
// should report non-decreasing counts; the coordinator does not reorder them.
type ProgressFunc func(sent, total int64)

// Transport sends one document to the collector. Send blocks until the
// transfer finished; a nil error means success.
type Transport interface {
	Send(ctx context.Context, name string, data []byte, report ProgressFunc) error
}

// Publisher receives a full stream value on every change. Publish is called
// with the coordinator's lock held, so it must not call back into it.
type Publisher interface {
	Publish(update models.ProgressUpdate)
}

// Classifier tags a parsed document with a kind. It may return "".
type Classifier interface {
	Classify(doc *markup.Node) string
}

// TransferError is the terminal failure of one item's transfer.
type TransferError struct {
	Name   string
	Reason string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer of '%s' failed: %s", e.Name, e.Reason)
}

// ItemParseError is a document that could not be converted.
type ItemParseError struct {
	Name string
	Err  error
}

func (e *ItemParseError) Error() string {
	return fmt.Sprintf("could not parse '%s': %v", e.Name, e.Err)
}

func (e *ItemParseError) Unwrap() error { return e.Err }

type nopPublisher struct{}

func (nopPublisher) Publish(models.ProgressUpdate) {}
