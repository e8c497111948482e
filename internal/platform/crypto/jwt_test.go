package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", "reader", time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if token == "" {
		t.Fatal("Expected token to be generated")
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("Expected no error parsing token, got %v", err)
	}
	if claims.Subject != "reader" {
		t.Errorf("Expected subject reader, got %s", claims.Subject)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Expected issuer %s, got %s", Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("Expected JTI to be set")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", "reader", time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Error("Expected error for token signed with a different secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("test-secret", "reader", -time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ParseToken("test-secret", token); err == nil {
		t.Error("Expected error for expired token")
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	c := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "reader",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken("test-secret", token); err == nil {
		t.Error("Expected HS512 token to be rejected")
	}
}

func TestEmptySecret(t *testing.T) {
	if _, err := GenerateToken("", "reader", time.Hour); err != ErrEmptySecret {
		t.Errorf("Expected ErrEmptySecret, got %v", err)
	}
	if _, err := ParseToken("", "token"); err != ErrEmptySecret {
		t.Errorf("Expected ErrEmptySecret, got %v", err)
	}
}
