package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/reglet-dev/callgate/"

// layerRules lists, per package directory, the module packages it may import.
// Standard library and third-party imports are always allowed.
var layerRules = map[string][]string{
	"domain/entities":       {},
	"domain/errors":         {"domain/entities"},
	"internal/handle":       {"domain/errors"},
	"args":                  {"domain/entities", "domain/errors"},
	"marshal":               {"args", "domain/entities", "domain/errors"},
	"application/schema":    {"marshal"},
	"gateway":               {"application/schema", "args", "domain/entities", "domain/errors", "internal/handle", "marshal"},
	"wireformat":            {"domain/entities", "domain/errors"},
	"infrastructure/wazero": {"domain/entities", "domain/errors", "gateway", "wireformat"},
	"infrastructure/otel":   {"domain/errors", "gateway"},
}

// TestLayering verifies that non-test files only import the module packages
// their layer allows. The domain layer sits at the bottom and transports at the top.
func TestLayering(t *testing.T) {
	fset := token.NewFileSet()
	for dir, allowed := range layerRules {
		files, err := filepath.Glob(filepath.Join("..", dir, "*.go"))
		require.NoError(t, err, "failed to glob %s", dir)
		require.NotEmpty(t, files, "%s should contain Go files", dir)

		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			checkFileImports(t, fset, file, dir, allowed)
		}
	}
}

func checkFileImports(t *testing.T, fset *token.FileSet, filename, dir string, allowed []string) {
	t.Helper()

	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	require.NoError(t, err, "failed to parse %s", filename)

	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		pkg, ok := strings.CutPrefix(importPath, modulePath)
		if !ok {
			continue
		}
		assert.Contains(t, allowed, pkg,
			"%s (%s) must not import %s", dir, filepath.Base(filename), importPath)
	}
}
