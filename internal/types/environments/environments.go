package environments

import "strings"

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// Parse normalizes an APP_ENV value. Anything unrecognized, the empty
// string included, runs with production settings.
func Parse(raw string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(raw))); env {
	case Development, Staging, Test:
		return env
	default:
		return Production
	}
}
