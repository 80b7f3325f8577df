package resolver

import "errors"

var (
	// ErrUnsupportedScheme is returned when an input URL uses a scheme other than s3.
	ErrUnsupportedScheme = errors.New("input scheme is not supported")
	// ErrMissingInput is returned when metadata or sequences are requested for an origin that does not define them.
	ErrMissingInput = errors.New("input path or URL is not defined")
	// ErrUnknownStage is returned for a stage outside the known pipeline stages.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrUploadOrigins is returned when uploads are requested without exactly one destination origin.
	ErrUploadOrigins = errors.New("uploading is only supported for a single origin")
	// ErrTraitNotConfigured is returned when neither the build nor the default entry sets a trait value.
	ErrTraitNotConfigured = errors.New("trait is not configured")
	// ErrMissingWildcard is returned when a required wildcard was not supplied.
	ErrMissingWildcard = errors.New("wildcard is not set")
)
