package messages

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitize strips every HTML element from a rendered message. Messages carry
// interpolated user input, which must never reach an HTML surface verbatim.
func sanitize(message string) string {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(policy.Sanitize(message))
}
