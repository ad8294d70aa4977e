package domain

import (
	"errors"
	"fmt"
)

// Error kinds for the pipeline taxonomy. Validation failures are batch-fatal;
// everything else is absorbed or recorded per document.
var (
	ErrValidation       = errors.New("validation failed")
	ErrToolInvocation   = errors.New("external tool failed")
	ErrInference        = errors.New("inference failed")
	ErrFilesystem       = errors.New("filesystem operation failed")
	ErrPersistence      = errors.New("persistence failed")
	ErrPathCollision    = errors.New("derived path collision")
	ErrBatchNotFound    = errors.New("batch not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
