package processors

import "errors"

var (
	// ErrInsufficientAcquisitionLots means a disposal could not be matched
	// to enough acquisition history. Recoverable: the caller may supply
	// more history, or the orchestrator skips the disposal.
	ErrInsufficientAcquisitionLots = errors.New("insufficient acquisition lots")

	// ErrInsufficientLotBalance means a specifically identified lot cannot
	// satisfy the requested amount, or the selection itself is invalid.
	// Caller error in specific-identification input.
	ErrInsufficientLotBalance = errors.New("insufficient lot balance")

	// ErrUnsupportedCostBasisMethod is a configuration error, fatal to the
	// calculator factory call.
	ErrUnsupportedCostBasisMethod = errors.New("unsupported cost basis method")
)
