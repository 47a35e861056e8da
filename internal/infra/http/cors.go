package http

import (
	"net/http"
	"strings"
)

// CORSAllowedHeaders — заголовки, которые браузер может отправлять функциям оплаты.
var CORSAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type", "x-origin-domain"}

// CORS добавляет разрешающие заголовки ко всем ответам и сразу отвечает на preflight без тела.
func CORS(next http.Handler) http.Handler {
	allowHeaders := strings.Join(CORSAllowedHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", "POST, GET, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
