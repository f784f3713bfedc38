package environment

import "testing"

func TestCurrentDefaultsToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := Current(); got != Development {
		t.Fatalf("expected development, got %q", got)
	}
	if IsTest() || IsProduction() {
		t.Fatalf("default environment is neither test nor production")
	}
}

func TestCurrentReadsAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	if !IsTest() {
		t.Fatalf("expected test mode")
	}

	t.Setenv("APP_ENV", "production")
	if !IsProduction() {
		t.Fatalf("expected production mode")
	}
}
