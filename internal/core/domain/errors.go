package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("domain: not found")
	ErrUpstreamModel       = errors.New("upstream model error")
	ErrUpstreamCatalog     = errors.New("upstream catalog error")
	ErrAuthCallbackInvalid = errors.New("auth callback invalid")
	ErrCredentialRevoked   = errors.New("catalog credential revoked")
	ErrNotAuthenticated    = errors.New("catalog account not connected")
	ErrInvalidTransition   = errors.New("domain: invalid conversation transition")
	ErrNothingPending      = errors.New("domain: no pending songs to build")
)

// CatalogStep names the catalog operation that failed during resolution.
type CatalogStep string

const (
	StepRefresh  CatalogStep = "refresh"
	StepIdentity CatalogStep = "identity"
	StepSearch   CatalogStep = "search"
	StepCreate   CatalogStep = "create"
	StepInsert   CatalogStep = "insert"
)

// CatalogStepError reports which step of a playlist build failed.
// PlaylistID is set when a playlist had already been created; Cleaned reports
// whether that playlist was removed again.
type CatalogStepError struct {
	Step       CatalogStep
	PlaylistID string
	Cleaned    bool
	Err        error
}

func (e *CatalogStepError) Error() string {
	if e.PlaylistID != "" {
		return fmt.Sprintf("catalog %s failed (playlist %s, cleaned=%t): %v", e.Step, e.PlaylistID, e.Cleaned, e.Err)
	}
	return fmt.Sprintf("catalog %s failed: %v", e.Step, e.Err)
}

func (e *CatalogStepError) Unwrap() error {
	return e.Err
}

func (e *CatalogStepError) Is(target error) bool {
	return target == ErrUpstreamCatalog
}
