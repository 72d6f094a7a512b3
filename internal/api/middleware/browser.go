package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie names the signed cookie carrying the browser-session id.
const SessionCookie = "examgate_sid"

const sidContextKey = "sid"

// BrowserSession identifies the calling browser: it verifies the signed
// session cookie and mints a fresh one when absent or tampered with. The
// sid scopes the per-browser credential store; the cookie itself carries
// no authorization state.
func BrowserSession(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				sid = parseSID(cookie.Value, secret)
			}

			if sid == "" {
				sid = newSID()
				signed, err := signSID(sid, secret)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "cannot establish browser session")
				}
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    signed,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(sidContextKey, sid)
			return next(c)
		}
	}
}

// SID returns the browser-session id established by BrowserSession.
func SID(c echo.Context) string {
	sid, _ := c.Get(sidContextKey).(string)
	return sid
}

func newSID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func signSID(sid, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func parseSID(value, secret string) string {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}
