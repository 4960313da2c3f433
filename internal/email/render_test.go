package email

import "testing"

func TestRender_SubstitutesAllOccurrences(t *testing.T) {
	t.Parallel()

	got := Render("Hola {{name}}, tu código es {{code}}. Saludos, {{name}}.", map[string]string{
		"name": "Ana",
		"code": "1234",
	})
	want := "Hola Ana, tu código es 1234. Saludos, Ana."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRender_UnknownPlaceholderSurvives(t *testing.T) {
	t.Parallel()

	got := Render("Hola {{name}}, ver {{missing}}", map[string]string{"name": "Bo"})
	want := "Hola Bo, ver {{missing}}"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRender_NoVars(t *testing.T) {
	t.Parallel()

	in := "sin variables {{x}}"
	if got := Render(in, nil); got != in {
		t.Fatalf("got %q want %q", got, in)
	}
	if got := Render("", map[string]string{"x": "1"}); got != "" {
		t.Fatalf("got %q want empty", got)
	}
}

func TestRender_ExactBracesOnly(t *testing.T) {
	t.Parallel()

	// {{ name }} con espacios no es un placeholder válido.
	got := Render("{{ name }} y {{name}}", map[string]string{"name": "Zoe"})
	want := "{{ name }} y Zoe"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderParts(t *testing.T) {
	t.Parallel()

	s, c := RenderParts("Pedido {{id}}", "Tu pedido {{id}} salió", map[string]string{"id": "42"})
	if s != "Pedido 42" || c != "Tu pedido 42 salió" {
		t.Fatalf("got %q / %q", s, c)
	}
}
