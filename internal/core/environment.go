package core

import "strings"

// Environment represents the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// UsesConsoleLogs reports whether log output should be human readable.
func (e Environment) UsesConsoleLogs() bool {
	return e == Development || e == Testing
}

// ParseEnvironment normalises APP_ENV style values. Unknown values fall back
// to Development.
func ParseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Production, "prod":
		return Production
	case Staging, "stage":
		return Staging
	case Testing, "test":
		return Testing
	default:
		return Development
	}
}
