package services

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/training_portal/database"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateNumber = database.ErrDuplicateNumber
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type StudentNotFoundError struct {
	Ref string
}

func (e *StudentNotFoundError) Error() string {
	return fmt.Sprintf("student %q not found", e.Ref)
}

func (e *StudentNotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousMatchError is returned when a name lookup matches several users.
type AmbiguousMatchError struct {
	Name    string
	Matches int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d users share the name %q", e.Matches, e.Name)
}

type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load certificate template %q: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render certificate: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

type IssuanceFailedError struct {
	Attempts int
	Err      error
}

func (e *IssuanceFailedError) Error() string {
	return fmt.Sprintf("certificate issuance failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *IssuanceFailedError) Unwrap() error { return e.Err }
