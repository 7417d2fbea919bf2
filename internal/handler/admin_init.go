package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/sblogdev/sblog/internal/auth"
    "github.com/sblogdev/sblog/internal/config"
    "github.com/sblogdev/sblog/internal/repository"
)

// InitHandler is the admin bootstrap endpoint: it creates the initial
// administrator account, or resets its password when the account already
// exists.  The route is excluded from the token verifier so a fresh
// deployment can be bootstrapped; it should be disabled once an admin
// exists.
type InitHandler struct {
    Cfg   config.Config
    Users *repository.UserRepo
}

func NewInitHandler(cfg config.Config, u *repository.UserRepo) *InitHandler {
    return &InitHandler{Cfg: cfg, Users: u}
}

const (
    bootstrapAdminName     = "admin"
    bootstrapAdminPassword = "admin123"
)

// ResetAdmin handles POST /api/admin/init/reset-admin.
func (h *InitHandler) ResetAdmin(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, bootstrapAdminName)
    if err == sql.ErrNoRows {
        if _, err := h.Users.Create(ctx, bootstrapAdminName, bootstrapAdminPassword,
            auth.RoleAdmin, repository.StatusActive, h.Cfg.BcryptCost); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
        }
        return c.JSON(http.StatusCreated, echo.Map{"message": "admin account created"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if err := h.Users.UpdatePassword(ctx, u.ID, bootstrapAdminPassword, h.Cfg.BcryptCost); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset admin failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "admin password reset"})
}
