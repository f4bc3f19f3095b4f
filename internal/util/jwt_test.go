package util

import (
	"exam_guardian_backend/internal/model"
	"testing"
	"time"
)

func TestGenerateAndParseJWT(t *testing.T) {
	user := &model.User{
		BaseModel: model.BaseModel{ID: 7},
		Email:     "student@example.com",
		Role:      model.Student,
	}

	token, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 7 || claims.Email != "student@example.com" || claims.Role != model.Student {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}
	token, err := GenerateJWT(user, "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token, "secret-b"); err == nil {
		t.Error("want error for wrong secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}
	token, err := GenerateJWT(user, "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token, "test-secret"); err == nil {
		t.Error("want error for expired token")
	}
}
