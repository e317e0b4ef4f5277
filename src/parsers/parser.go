package parsers

import (
	"errors"
	"io"

	"github.com/username/cryptotax/src/models"
)

// ErrParsingFailed wraps per-source parse failures so handlers can map them
// to a client error without inspecting source-specific details.
var ErrParsingFailed = errors.New("parsing failed")

type Parser interface {
	Parse(file io.Reader) ([]models.Transaction, error)
}
