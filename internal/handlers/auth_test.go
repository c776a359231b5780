package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/umerkang66/db-lab-project/internal/config"
	"github.com/umerkang66/db-lab-project/internal/models"
	"github.com/umerkang66/db-lab-project/internal/validate"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	A  *AuthHandler
	P  *ProductHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))

	e := echo.New()
	e.Validator = validate.New()

	return &testEnv{
		T:  t,
		E:  e,
		DB: db,
		A:  &AuthHandler{DB: db, JWTSecret: []byte("test_secret"), RefreshSecret: []byte("test_refresh")},
		P:  &ProductHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "test_user",
		"email":    "user@example.com",
		"password": "password",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", load)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "user@example.com", user.Email)
	require.Equal(t, models.RoleCustomer, user.Role)

	recLogin, cLogin := env.doJSONRequest(http.MethodPost, "/api/v1/login", load)
	require.NoError(t, env.A.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.False(t, resp.IsAdmin)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.False(t, stored.Revoked)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "test_user",
		"email":    "user@example.com",
		"password": "password",
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", load)
	require.NoError(t, env.A.Register(c))

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/register", load)
	err := env.A.Register(c2)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "test_user",
		"email":    "user@example.com",
		"password": "password",
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", load)
	require.NoError(t, env.A.Register(c))

	load["password"] = "wrong_password"
	_, cLogin := env.doJSONRequest(http.MethodPost, "/api/v1/login", load)
	err := env.A.Login(cLogin)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogOutRevokesRefresh(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]string{
		"name":     "test_user",
		"email":    "user@example.com",
		"password": "password",
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", load)
	require.NoError(t, env.A.Register(c))

	recLogin, cLogin := env.doJSONRequest(http.MethodPost, "/api/v1/login", load)
	require.NoError(t, env.A.Login(cLogin))

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &resp))

	ck := &http.Cookie{Name: "refreshToken", Value: resp.RefreshToken, Path: "/"}
	rec, cOut := env.doJSONRequest(http.MethodPost, "/api/v1/logout", nil, ck)
	require.NoError(t, env.A.LogOut(cOut))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
