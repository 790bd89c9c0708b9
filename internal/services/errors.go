package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration covers unknown structures, missing credentials, and
	// other problems that must abort before any unit work begins.
	ErrConfiguration = errors.New("configuration error")
	// ErrConnectivity covers an unreachable stream or HTTP endpoint.
	ErrConnectivity = errors.New("connectivity error")
	// ErrGeneration covers backend-reported Error events.
	ErrGeneration = errors.New("generation error")
	// ErrTimeout covers a clip session exceeding its wall-clock ceiling.
	ErrTimeout = errors.New("timeout")
	// ErrDownload covers artifact fetch failures after a Result event.
	ErrDownload = errors.New("download error")
	// ErrAssembly covers external assembly tool failures.
	ErrAssembly = errors.New("assembly error")
	// ErrValidation covers malformed caller input.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPreRun reports whether an error belongs to the class that must surface
// before any unit is dispatched.
func IsPreRun(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrConnectivity)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
