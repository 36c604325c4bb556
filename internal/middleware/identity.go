package middleware

// identity.go defines helper functions shared across middleware files.
// It provides a user identifier used for per-user rate limit keys.
// When no token is present the caller is grouped under "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated user's id from context.
// JWTAuth stores the raw "sub" claim, which the JSON decoder delivers
// as a float64; string subjects are passed through as-is.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
