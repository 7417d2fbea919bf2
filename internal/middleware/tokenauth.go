package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/sblogdev/sblog/internal/auth" // session token codec
)

// TokenAuth returns an Echo middleware that verifies the Bearer session
// token on admin-scoped routes and injects the resolved identity into the
// request context.  include and exclude define which paths the verifier
// covers; login, register, the username-availability check and the admin
// bootstrap endpoints stay reachable without a token.  Handlers downstream
// read the identity via c.Get("user_id"), c.Get("username") and
// c.Get("role").
func TokenAuth(codec *auth.Codec, include, exclude *PathMatcher) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !applies(include, exclude, c.Request().URL.Path) {
                return next(c)
            }

            // A valid header is "Bearer " followed by the token.  Anything
            // else is terminal for this request; the client must re-login.
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            claims, err := codec.Verify(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
            }

            // Attach the resolved identity for downstream handlers.
            c.Set("user_id", claims.UserID)
            c.Set("username", claims.Username())
            c.Set("role", claims.Role)
            return next(c)
        }
    }
}
