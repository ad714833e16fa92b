package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidState indicates an illegal status transition, such as posting a
// journal entry that is no longer a draft.
var ErrInvalidState = errors.New("invalid state transition")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConfiguration indicates that a required fixed resource (e.g. a seeded
// account) is missing. Signals a deployment defect, not bad input.
var ErrConfiguration = errors.New("configuration error")

// ErrStorage indicates a failure in the object storage collaborator.
var ErrStorage = errors.New("storage error")

// ErrExtraction indicates a failure in the text extraction collaborator.
var ErrExtraction = errors.New("text extraction error")

// ErrParsing indicates a failure in the structured parsing collaborator.
var ErrParsing = errors.New("parsing error")

// ErrTimeout indicates that an external collaborator did not answer within its
// bounded timeout.
var ErrTimeout = errors.New("operation timed out")
