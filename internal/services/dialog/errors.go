package dialog

import "errors"

var (
	// ErrDialogLimit is returned by StartNewDialog when all slots are
	// occupied. No state is mutated.
	ErrDialogLimit = errors.New("dialog limit reached")

	// ErrInvalidSlot is returned for slot numbers outside [1,5].
	ErrInvalidSlot = errors.New("invalid dialog slot")
)
