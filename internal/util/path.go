package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveProjectPath normalizes a model-supplied file path against the
// project root directory. Several historical prefix conventions must all
// land in the same place:
//
//	/project/src/app.py  ->  <root>/src/app.py
//	/src/app.py          ->  <root>/src/app.py
//	src/app.py           ->  <root>/src/app.py
//	myroot/src/app.py    ->  <root>/src/app.py  (root base name not nested twice)
//
// Paths that escape the root via ".." are rejected.
func ResolveProjectPath(root, path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", fmt.Errorf("empty file path")
	}

	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "/project/")
	p = strings.TrimPrefix(p, "/")

	// Avoid double-nesting when the supplied path already starts with the
	// root directory's own name.
	rootBase := filepath.Base(filepath.Clean(root))
	if rootBase != "." && rootBase != string(filepath.Separator) {
		if p == rootBase {
			p = ""
		} else {
			p = strings.TrimPrefix(p, rootBase+"/")
		}
	}
	if p == "" {
		return "", fmt.Errorf("path %q resolves to the project root itself", path)
	}

	cleaned := filepath.Clean(filepath.FromSlash(p))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", path)
	}

	return filepath.Join(root, cleaned), nil
}

// FileTypeForPath classifies a path by extension for the created-file
// ledger.
func FileTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".rb", ".java", ".rs", ".c", ".cpp", ".h":
		return "code"
	case ".md", ".rst", ".txt":
		return "documentation"
	case ".json", ".yaml", ".yml", ".toml", ".ini", ".env":
		return "configuration"
	case ".html", ".css", ".scss":
		return "frontend"
	case ".sql":
		return "database"
	case ".sh", ".bash":
		return "script"
	default:
		return "other"
	}
}
