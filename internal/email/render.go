package email

import "strings"

// Render sustituye placeholders planos {{clave}} por los valores provistos.
// Cada clave reemplaza todas sus ocurrencias. Placeholders sin valor quedan
// como están, lo que hace visible en el mail recibido qué variable faltó.
func Render(s string, vars map[string]string) string {
	if len(vars) == 0 || s == "" {
		return s
	}
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// RenderParts renderiza asunto y cuerpo con el mismo set de variables.
func RenderParts(subject, content string, vars map[string]string) (string, string) {
	return Render(subject, vars), Render(content, vars)
}
