package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// bearerToken extracts the teacher token from the Authorization header.
// Returns "" when absent; per-classroom validation happens in the service
// since the token slot lives on the classroom record.
func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
