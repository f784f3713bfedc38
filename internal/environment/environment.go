// Package environment reports which mode the process runs in, driven by the
// APP_ENV variable. The destructive Clear operations on the repositories are
// gated on test mode.
package environment

import "os"

const (
	Development = "development"
	Test        = "test"
	Production  = "production"
)

// Current returns the configured environment, defaulting to development.
func Current() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return Development
}

// IsTest reports whether the process runs in test mode.
func IsTest() bool {
	return Current() == Test
}

// IsProduction reports whether the process runs in production mode.
func IsProduction() bool {
	return Current() == Production
}
