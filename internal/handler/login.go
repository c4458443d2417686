package handler

import (
	"crypto/subtle"
	"html/template"
	"net/http"

	"assettracker/internal/config"
	"assettracker/internal/logger"
	"assettracker/internal/middleware"
	"assettracker/internal/service"
)

var loginTemplate = template.Must(template.New("login").Parse(loginHTML))

// LoginPageHandler renders the password form.
func LoginPageHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderLogin(w, logger, http.StatusOK, "")
	}
}

func renderLogin(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, message); err != nil {
		logger.Error("Error rendering login page: %v", err)
	}
}

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(config *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethods(w, r, http.MethodPost) {
			return
		}
		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(config.Password)) != 1 {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			renderLogin(w, logger, http.StatusUnauthorized, "Invalid password")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    middleware.Token(config.Password),
			Path:     "/",
			MaxAge:   2592000, // 30 days
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LogoutHandler discards the browser session, clears the authentication and
// session cookies and redirects to the login page.
func LogoutHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			manager.EndSession(cookie.Value)
		}
		for _, name := range []string{middleware.AuthCookie, SessionCookie} {
			http.SetCookie(w, &http.Cookie{
				Name:   name,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
