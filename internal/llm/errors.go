package llm

import "errors"

// ErrNoTextModel is returned by features that need a generative model when none is configured.
var ErrNoTextModel = errors.New("no text model configured")

var (
	errEmptyEmbedding = errors.New("embedding endpoint returned an empty vector")
	errNoContent      = errors.New("no content generated")
)
