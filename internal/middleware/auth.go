package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie names the cookie set after a successful login.
const AuthCookie = "authenticated"

// Token is the cookie value issued for password. Changing the password
// invalidates existing cookies.
func Token(password string) string {
	sum := sha256.Sum256([]byte("assettracker:" + password))
	return hex.EncodeToString(sum[:])
}

// publicPath reports whether path is reachable without logging in.
func publicPath(path string) bool {
	return path == "/login" ||
		path == "/auth/login" ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/static/")
}

// AuthMiddleware lets requests through when they carry a valid auth cookie.
// An empty password disables authentication.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}
	want := Token(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(want)) != 1 {
			// API clients get a status, browsers get the login page.
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
