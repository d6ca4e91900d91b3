package tui

import "errors"

// ErrMissingPipeline is returned when the pipeline is not provided.
var ErrMissingPipeline = errors.New("tui: pipeline is required")

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("tui: document service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
