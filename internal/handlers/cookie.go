package handlers

import (
	"net/http"
	"time"

	"github.com/seongmin-k/movietalk/internal/env"
)

const authCookieName = "auth"
const authCookieDays = 90

func setAuthCookie(w http.ResponseWriter, token string) {
	expiration := time.Now().Add(time.Hour * 24 * authCookieDays)
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiration,
		MaxAge:   int((time.Hour * 24 * authCookieDays).Seconds()),
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   secure(),
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: sameSite(),
		Secure:   secure(),
	})
}

func sameSite() http.SameSite {
	switch env.Current {
	case env.Production:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func secure() bool {
	switch env.Current {
	case env.Production:
		return true
	default:
		return false
	}
}
