package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // SQL database interactions
    "net/http"     // HTTP status codes and primitives
    "strconv"      // string-to-int conversion
    "strings"      // string manipulation utilities
    "time"         // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/sblogdev/sblog/internal/auth"       // token codec and session registry
    "github.com/sblogdev/sblog/internal/config"     // app configuration
    "github.com/sblogdev/sblog/internal/repository" // DB repositories
    "github.com/sblogdev/sblog/internal/utils"      // helper functions (hashing)
)

// UserHandler bundles dependencies for the login/logout surface.
type UserHandler struct {
    Cfg      config.Config
    Codec    *auth.Codec
    Users    *repository.UserRepo
    Sessions *auth.SessionStore
}

func NewUserHandler(cfg config.Config, codec *auth.Codec, u *repository.UserRepo, s *auth.SessionStore) *UserHandler {
    return &UserHandler{Cfg: cfg, Codec: codec, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}
type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    Role     string `json:"role"`
}
type loginResp struct {
    Token string   `json:"token"`
    User  userPart `json:"user"`
}

// Register creates a user with role USER.  New accounts start disabled and
// stay that way until an administrator enables them, so registration never
// returns a token.
func (h *UserHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Username, req.Password, auth.RoleUser, repository.StatusDisabled, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrUsernameExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "user": userPart{ID: uid, Username: req.Username, Role: auth.RoleUser},
    })
}

// Login verifies credentials, issues a session token and records it in the
// session registry under login:token:<userId> with the token's TTL.
func (h *UserHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, req.Username)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if u.Status == repository.StatusDisabled {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    token, err := h.Codec.Issue(u.ID, u.Username, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    // A re-login overwrites the previous registry entry and refreshes its TTL.
    if err := h.Sessions.Save(ctx, u.ID, token); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
    }

    return c.JSON(http.StatusOK, loginResp{
        Token: token,
        User:  userPart{ID: u.ID, Username: u.Username, Role: u.Role},
    })
}

// Logout deletes the caller's session registry entry.  The user id comes
// from an unverified parse of the presented token: even an expired token
// identifies which key to clear, and extraction is never treated as an
// authentication decision.  Logout is idempotent; a missing registry entry
// is not an error.  The token itself stays cryptographically valid until
// natural expiry.
func (h *UserHandler) Logout(c echo.Context) error {
    header := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(header, "Bearer ") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing bearer token"})
    }
    raw := strings.TrimPrefix(header, "Bearer ")

    uid, ok := h.Codec.ExtractUserID(raw)
    if !ok {
        // Nothing to clear; treat as already logged out.
        return c.NoContent(http.StatusNoContent)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Sessions.Delete(ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// CheckUsername reports whether a username is still available.  Public so
// the registration form can probe before submitting.
func (h *UserHandler) CheckUsername(c echo.Context) error {
    username := strings.TrimSpace(c.QueryParam("username"))
    if username == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    exists, err := h.Users.ExistsByUsername(ctx, username)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"available": !exists})
}

// Find returns a user's public fields by id (protected).
func (h *UserHandler) Find(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, userPart{ID: u.ID, Username: u.Username, Role: u.Role})
}

// Me is a simple protected endpoint returning the identity TokenAuth put
// into the context.
func (h *UserHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":  c.Get("user_id"),
        "username": c.Get("username"),
        "role":     c.Get("role"),
    })
}
