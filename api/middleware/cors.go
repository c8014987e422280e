package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The mobile clients ship as web views, so both the capacitor scheme and
// the bare localhost origin the Android wrapper uses must be allowed.
var corsOptions = cors.Options{
	AllowedOrigins: []string{
		"http://localhost:3000",
		"http://localhost",
		"capacitor://localhost",
		"https://app.precious.you",
	},
	AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
	AllowCredentials: true,
	MaxAge:           300,
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(corsOptions).Handler
}
