package lending

import "github.com/pkg/errors"

// Error kinds. Failures are wrapped with context; test with errors.Is.
var (
	ErrConfig        = errors.New("config error")
	ErrIO            = errors.New("io error")
	ErrInvalidRate   = errors.New("invalid rate")
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidRow    = errors.New("invalid row")
	ErrCollaborator  = errors.New("collaborator error")
	ErrAlreadyRun    = errors.New("evolver already run")
)
