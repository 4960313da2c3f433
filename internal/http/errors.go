package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes limita el tamaño de cualquier body JSON aceptado.
const maxBodyBytes = 1 << 20

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        int    `json:"error_code,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// WriteJSON serializa v como respuesta. Los errores de encode se ignoran:
// a esta altura el status ya salió y no hay nada útil que hacer.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError emite el envelope de error estándar de la API. El request id
// viene del header que dejó el middleware, si corrió.
func WriteError(w http.ResponseWriter, status int, code, desc string, errCode int) {
	WriteJSON(w, status, apiError{
		Error:            code,
		ErrorDescription: desc,
		ErrorCode:        errCode,
		RequestID:        w.Header().Get("X-Request-ID"),
	})
}

// ReadJSON decodifica el body en v y responde 400 por su cuenta cuando algo
// está mal; el caller sólo chequea el bool. Campos desconocidos se toleran.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := strings.ToLower(r.Header.Get("Content-Type")); !strings.Contains(ct, "application/json") {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Content-Type debe ser application/json", 1102)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "invalid_json", "json inválido", 1102)
		return false
	}
	return true
}
