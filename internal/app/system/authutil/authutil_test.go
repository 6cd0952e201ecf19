package authutil

import "testing"

func TestValidatePassword_TooShort(t *testing.T) {
	for _, pw := range []string{"", "a", "1234567"} {
		if err := ValidatePassword(pw); err != ErrPasswordTooShort {
			t.Errorf("expected ErrPasswordTooShort for %q, got %v", pw, err)
		}
	}
}

func TestValidatePassword_Common(t *testing.T) {
	caseVariants := []string{
		"password",
		"PASSWORD",
		"Admin123",
		"ILoveYou",
	}

	for _, pw := range caseVariants {
		if err := ValidatePassword(pw); err != ErrPasswordCommon {
			t.Errorf("expected ErrPasswordCommon for %q (case variant), got %v", pw, err)
		}
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	if err := ValidatePassword("SecurePassword123"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
}

func TestHashPassword_Valid(t *testing.T) {
	password := "SecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("expected hash to be non-empty")
	}
	if hash == password {
		t.Error("hash should not equal plain password")
	}
	// bcrypt hashes start with $2a$ or $2b$
	if hash[0] != '$' {
		t.Error("expected bcrypt hash to start with $")
	}
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	password := "SecurePassword123"

	hash1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// bcrypt uses random salt, so hashes should be different
	if hash1 == hash2 {
		t.Error("expected different hashes for same password (random salt)")
	}
}

func TestCheckPassword_Correct(t *testing.T) {
	password := "SecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Error("expected correct password to verify")
	}
}

func TestCheckPassword_Wrong(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if CheckPassword("WrongPassword456", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	if CheckPassword("anything", "") {
		t.Error("expected empty hash to fail verification")
	}
}
