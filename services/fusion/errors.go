package fusion

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoImageData is reported when a frame without pixels is submitted.
	ErrNoImageData = errors.New("frame has no image data")
	// ErrClosed is returned when using an orchestrator after Close.
	ErrClosed = errors.New("fusion orchestrator is closed")
)

// Provider names used in ProviderError.
const (
	DepthProviderName  = "depth"
	ObjectProviderName = "object"
)

// ProviderError wraps a failure raised by one of the inference providers.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Provider, e.Err)
}

// Unwrap returns the provider's own error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// recoveredError turns a recovered panic value into an error.
func recoveredError(r interface{}) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "panic")
	}
	return errors.Errorf("panic: %v", r)
}
