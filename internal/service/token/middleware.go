package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/umerkang66/db-lab-project/internal/models"
)

// CheckCookie validates the access cookie and, when it has expired,
// rotates the refresh token. It returns the (possibly new) access
// token, the new refresh token ("" when no rotation happened) and the
// caller's role.
func (t *Service) CheckCookie(c echo.Context) (string, string, string, error) {
	asCookie, err := c.Cookie("accessToken")
	if err == nil {
		tok, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
			if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return t.JWTSecret, nil
		})
		if err == nil && tok.Valid {
			claims := tok.Claims.(jwt.MapClaims)
			userID, role, err := identityFromClaims(claims)
			if err != nil {
				return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			setUserContext(c, userID, role)
			return asCookie.Value, "", role, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	newAccess, newRefresh, claims, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
	}

	userID, role, err := identityFromClaims(claims)
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	setUserContext(c, userID, role)
	return newAccess, newRefresh, role, nil
}

// RequireLogin authenticates the request, refreshing cookies when needed.
func (t *Service) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, _, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if newRefresh != "" {
			c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
			c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
		}
		return next(c)
	}
}

// AdminOnly is RequireLogin plus the role gate; role never travels
// further than this boundary.
func (t *Service) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, role, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin rights required")
		}
		if newRefresh != "" {
			c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
			c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
		}
		return next(c)
	}
}

func setUserContext(c echo.Context, userID uuid.UUID, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

// UserFromContext returns the authenticated user id, or uuid.Nil when
// the request never passed the auth middleware.
func UserFromContext(c echo.Context) uuid.UUID {
	if v, ok := c.Get("userID").(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
