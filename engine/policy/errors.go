package policy

import "errors"

// Error taxonomy for the pipeline. Stages wrap these sentinels with
// fmt.Errorf("...: %w", ...) so callers discriminate with errors.Is.
var (
	// ErrLoad marks a structural ingestion input problem (unreadable file,
	// unparseable bytes). Recoverable by skipping the offending document.
	ErrLoad = errors.New("document load failed")

	// ErrUnsupportedDocument marks a document with no extractable text,
	// typically an image-only PDF. Distinct from ErrLoad so ingestion can
	// report it precisely while continuing the batch.
	ErrUnsupportedDocument = errors.New("document has no extractable text")

	// ErrEmbeddingProvider marks a transport failure talking to the remote
	// embedding endpoint. The provider wrapper never retries; retry policy
	// belongs to the boundary layer.
	ErrEmbeddingProvider = errors.New("embedding provider call failed")

	// ErrEmbeddingDimension marks a fatal configuration mismatch between the
	// returned vector length and the configured dimension. It must surface
	// before any write reaches the vector store.
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")

	// ErrCollectionConfig marks an existing collection whose vector size
	// differs from the configured one. Stored vectors are never silently
	// reinterpreted.
	ErrCollectionConfig = errors.New("collection config mismatch")

	// ErrInvalidFilter marks a bad query filter, rejected before any remote
	// call is made.
	ErrInvalidFilter = errors.New("invalid retrieval filter")

	// ErrGeneration marks a language-model transport or timeout failure,
	// surfaced unretried to the caller.
	ErrGeneration = errors.New("answer generation failed")
)
