package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Password123" {
		t.Fatalf("hash must not equal plaintext")
	}

	if !CheckPassword("Password123", hash) {
		t.Fatalf("expected correct password to verify")
	}
	if CheckPassword("WrongPassword", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	h2, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same input should differ")
	}
	if !CheckPassword("same-input", h1) || !CheckPassword("same-input", h2) {
		t.Fatalf("both salted hashes must verify")
	}
}
