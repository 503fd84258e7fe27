package utils

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ACCESS_TOKEN_SECRET", "travel_tales_test_jwt_secret_key_1234567890")
	os.Exit(m.Run())
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected userId 42, got %d", claims.UserID)
	}
	if claims.Issuer != "travel-tales-api" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestGenerateTokenRejectsInvalidUserID(t *testing.T) {
	for _, userID := range []int{0, -1} {
		if _, err := GenerateToken(userID); err == nil {
			t.Fatalf("expected an error for user id %d", userID)
		}
	}
}

func TestValidateTokenRejectsEmpty(t *testing.T) {
	if _, err := ValidateToken("  "); err == nil {
		t.Fatal("expected an error for a blank token")
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	token, err := GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	signature := []byte(parts[2])
	if signature[0] == 'A' {
		signature[0] = 'B'
	} else {
		signature[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(signature)

	if _, err := ValidateToken(tampered); err == nil {
		t.Fatal("expected a tampered token to be rejected")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.jwt"); err == nil {
		t.Fatal("expected garbage input to be rejected")
	}
}
