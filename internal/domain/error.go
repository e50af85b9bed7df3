package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Marketplace errors
	ErrNotEnoughQuantity = errors.New("not enough quantity left")
	ErrOfferInactive     = errors.New("offer is not active")
	ErrStoreNotApproved  = errors.New("store is not approved")
	ErrBookingFinalized  = errors.New("booking is already completed or cancelled")

	// Orchestration errors (see internal/application)
	ErrValidation        = errors.New("step input rejected")
	ErrUnrecognizedInput = errors.New("input matches no admissible handler")
	ErrCollaborator      = errors.New("collaborator call failed")

	// ErrFlowConfig is fatal at startup: a flow definition references an
	// unknown step or has no terminal transition.
	ErrFlowConfig = errors.New("invalid flow configuration")
)
