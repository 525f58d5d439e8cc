// Package middleware provides reusable HTTP middleware for the Room Reservation API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge is how long, in seconds, browsers may cache a preflight.
const preflightMaxAge = 600

// NewCORSHandler returns a middleware that lets the listed browser origins
// call the API with a bearer token. Each origin is scheme and host with no
// trailing slash. Content-Disposition is exposed so the CSV export keeps its
// file name when downloaded from the frontend.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
