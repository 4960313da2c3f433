package core

import "errors"

// Sentinelas que cruzan la frontera del repositorio. La capa pg traduce los
// errores del driver a estos; la capa HTTP los mapea a status codes.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
