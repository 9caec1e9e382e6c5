package narrative

import (
	"strings"

	"github.com/wonny/dart-digest/internal/contracts"
)

// PassesFactGate reports whether text names every selected company and link
func PassesFactGate(text string, selected []contracts.ScoredDisclosure) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	for _, item := range selected {
		if !strings.Contains(text, item.Disclosure.Company) {
			return false
		}
		if !strings.Contains(text, item.Disclosure.Link) {
			return false
		}
	}
	return true
}
