package pg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// El esquema no tiene soft delete: ninguna migración crea deleted_at. Una
// query que lo referencie compila igual y recién revienta en runtime con
// 42703, así que se chequea contra el fuente.
func TestStoreQueriesAvoidSoftDeleteColumn(t *testing.T) {
	t.Parallel()

	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		src, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(src), "deleted_at") {
			t.Errorf("%s references deleted_at, which no migration creates", f)
		}
	}
}
