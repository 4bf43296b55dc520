package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"
)

const (
	authCookie   = "jobtrack-auth"
	authUser     = "jobtrack" // basic auth user name for API clients
	authTokenKey = "jobtrack-auth-token"
)

// loginLimiter allows 5 login attempts per second per client address
var loginLimiter = tollbooth.NewLimiter(5, nil).SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

// handleLoginForm displays the login form
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, http.StatusOK, "")
}

// handleLogin processes the login form submission
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	if password == "" {
		s.renderLogin(w, r, http.StatusUnauthorized, "Password is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		log.Printf("[WARN] failed login attempt from %s", r.RemoteAddr)
		s.renderLogin(w, r, http.StatusUnauthorized, "Invalid password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    s.authToken(),
		Path:     s.cookiePath(),
		MaxAge:   int(s.loginTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
	http.Redirect(w, r, s.url("/"), http.StatusSeeOther)
}

// handleLogout clears the auth cookie
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     s.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})

	// tell HTMX to perform a full page refresh instead of swapping content
	w.Header().Set("HX-Refresh", "true")
	http.Redirect(w, r, s.url("/login"), http.StatusSeeOther)
}

// renderLogin renders the login form, with an error message if set
func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, errorMsg string) {
	data := struct {
		Error   string
		Theme   string
		BaseURL string
	}{
		Error:   errorMsg,
		Theme:   s.getTheme(r).String(),
		BaseURL: s.baseURL,
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	s.render(w, status, "login", "login.html", data)
}

// authMiddleware checks for auth cookie or falls back to basic auth
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// login page, static resources and ping are open
		if r.URL.Path == "/login" || r.URL.Path == "/ping" || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		if cookie, err := r.Cookie(authCookie); err == nil && s.validAuthToken(cookie.Value) {
			next.ServeHTTP(w, r)
			return
		}

		// basic auth for API clients
		if username, password, ok := r.BasicAuth(); ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		if r.Header.Get("Accept") == "" || strings.Contains(r.Header.Get("Accept"), "text/html") {
			http.Redirect(w, r, s.url("/login"), http.StatusSeeOther)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="Job Tracker"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// authToken derives the cookie token from the password hash, changing the password invalidates it
func (s *Server) authToken() string {
	h := sha256.Sum256([]byte(s.passwordHash + authTokenKey))
	return hex.EncodeToString(h[:])
}

func (s *Server) validAuthToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken())) == 1
}
