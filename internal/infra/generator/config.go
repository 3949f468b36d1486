package generator

import (
	"fmt"
	"time"
)

// ProviderSettings is a common interface for draft generator configuration.
// Provider implementations should accept this interface so that word-target
// validation and prompt construction behave consistently across vendors.
type ProviderSettings interface {
	// GetWordCount returns the target article length in words.
	// The target should be within the valid range (300-5000).
	GetWordCount() int

	// GetLanguage returns the language articles are written in.
	GetLanguage() string

	// GetModel returns the provider model identifier.
	GetModel() string

	// GetTimeout returns the wall clock limit for one generation call.
	GetTimeout() time.Duration

	// Validate validates the configuration and returns an error if invalid.
	Validate() error
}

const (
	// minWordCount is the minimum allowed word target for generated articles.
	minWordCount = 300

	// maxWordCount is the maximum allowed word target for generated articles.
	maxWordCount = 5000
)

// ValidateWordCount validates that the word target is within the valid range (300-5000).
// Returns an error if the target is out of range with a descriptive message.
//
// Example:
//
//	err := ValidateWordCount(1200) // nil (valid)
//	err := ValidateWordCount(100)  // error: "word target 100 is below minimum 300"
//	err := ValidateWordCount(9000) // error: "word target 9000 exceeds maximum 5000"
func ValidateWordCount(words int) error {
	if words < minWordCount {
		return fmt.Errorf("word target %d is below minimum %d", words, minWordCount)
	}
	if words > maxWordCount {
		return fmt.Errorf("word target %d exceeds maximum %d", words, maxWordCount)
	}
	return nil
}
