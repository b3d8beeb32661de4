package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	pair, err := Issue("user-1", "admin", "faceattend-admin", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty tokens")
	}
	if !pair.RefreshExp.After(pair.AccessExp) {
		t.Fatal("refresh token should outlive the access token")
	}

	claims, err := Parse(pair.AccessToken, "secret", "faceattend-admin")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenKindsDoNotCross(t *testing.T) {
	pair, err := Issue("user-1", "admin", "faceattend-admin", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.RefreshToken, "secret", "faceattend-admin"); err == nil {
		t.Fatal("refresh token must not pass access parsing")
	}
	if _, err := ParseRefresh(pair.AccessToken, "secret", "faceattend-admin"); err == nil {
		t.Fatal("access token must not pass refresh parsing")
	}
	claims, err := ParseRefresh(pair.RefreshToken, "secret", "faceattend-admin")
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("user-1", "admin", "faceattend-admin", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "other-secret", "faceattend-admin"); err == nil {
		t.Fatal("wrong key should be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("user-1", "admin", "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "faceattend-admin"); err == nil {
		t.Fatal("wrong issuer should be rejected")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("user-1", "admin", "faceattend-admin", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "faceattend-admin"); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("valid password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("invalid password accepted")
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("short passwords should be rejected")
	}
}
