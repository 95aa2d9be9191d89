package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func issueToken(secret string, ttl time.Duration, role, restaurantID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role":         role,
		"restaurantId": restaurantID,
		"token_type":   "access",
		"exp":          exp.Unix(),
		"iat":          now.Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}
