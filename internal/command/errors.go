package command

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every validation error. Validation errors are
// raised before any write.
var ErrInvalid = errors.New("invalid request")

// Validation errors.
var (
	ErrEmptyName       = fmt.Errorf("%w: name must not be empty", ErrInvalid)
	ErrDuplicateName   = fmt.Errorf("%w: name already exists", ErrInvalid)
	ErrTagNotFound     = fmt.Errorf("%w: tag not found", ErrInvalid)
	ErrArticleNotFound = fmt.Errorf("%w: article not found", ErrInvalid)
	ErrMissingArgument = fmt.Errorf("%w: missing required argument", ErrInvalid)
	ErrUnknownCommand  = fmt.Errorf("%w: unknown command", ErrInvalid)
	ErrBadPayload      = fmt.Errorf("%w: malformed payload", ErrInvalid)
)
