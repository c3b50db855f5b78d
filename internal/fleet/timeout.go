package fleet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TimeoutNoneConstant disables the run deadline.
	TimeoutNoneConstant            = "none"
	invalidTimeoutMessageConstant  = "invalid timeout"
	invalidTimeoutTemplateConstant = "%w %q: expected %q or a positive duration such as 90s"
)

// ErrInvalidTimeout indicates a timeout value that is neither "none" nor a positive duration.
var ErrInvalidTimeout = errors.New(invalidTimeoutMessageConstant)

// ParseTimeout converts a configured timeout into a duration. "none" and the empty string yield zero.
func ParseTimeout(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 || strings.EqualFold(trimmed, TimeoutNoneConstant) {
		return 0, nil
	}

	duration, parseError := time.ParseDuration(trimmed)
	if parseError != nil || duration <= 0 {
		return 0, fmt.Errorf(invalidTimeoutTemplateConstant, ErrInvalidTimeout, trimmed, TimeoutNoneConstant)
	}
	return duration, nil
}
