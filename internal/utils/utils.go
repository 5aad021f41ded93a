package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zlucky/raffle-backend/internal/config"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+251[79]\d{8}$`)
)

// NormalizePhone normalizes an Ethiopian mobile number to +251XXXXXXXXX
// international format. Accepted inputs: +2519XXXXXXXX, 09XXXXXXXX and
// 9XXXXXXXX (and the 7-prefixed equivalents). Returns "" when the input
// does not normalize to a valid number.
func NormalizePhone(phone string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(phone)

	switch {
	case strings.HasPrefix(cleaned, "+251") && len(cleaned) == 13:
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		cleaned = "+251" + cleaned[1:]
	case len(cleaned) == 9:
		cleaned = "+251" + cleaned
	default:
		return ""
	}

	if !phoneRegex.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// IsValidEmail reports whether the string looks like an email address.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// MaskPhone masks a phone number for public display, keeping the last
// four digits visible.
func MaskPhone(phone string) string {
	if phone == "" {
		return "****"
	}
	if len(phone) <= 4 {
		return "****" + phone
	}
	return "****" + phone[len(phone)-4:]
}

// OrdinalSuffix returns the English ordinal suffix for n (1st, 2nd, 3rd, 4th...).
func OrdinalSuffix(n int) string {
	if v := n % 100; v >= 11 && v <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// GenerateJWT generates a signed HS256 token for an organizer account.
func GenerateJWT(userID, email, role string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Second * time.Duration(cfg.JWT.ExpiresIn)).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateJWT parses and validates a token, returning its claims.
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
