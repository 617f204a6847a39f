package i18n

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/rottengram/rottenshield/resources"
	"gopkg.in/yaml.v2"
)

func TestTranslationsKeysAreUsedAndComplete(t *testing.T) {
	t.Parallel()

	used, err := collectUsedI18nKeys()
	if err != nil {
		t.Fatalf("collect used i18n keys: %v", err)
	}

	defined, err := collectDefinedI18nKeys()
	if err != nil {
		t.Fatalf("collect defined i18n keys: %v", err)
	}

	missing := difference(used, defined)
	if len(missing) > 0 {
		t.Fatalf("missing translation keys:\n%s", strings.Join(missing, "\n"))
	}

	unused := difference(defined, used)
	if len(unused) > 0 {
		t.Fatalf("unused translation keys:\n%s", strings.Join(unused, "\n"))
	}
}

func TestTranslationsKeepFormatVerbs(t *testing.T) {
	t.Parallel()

	dict, err := loadTranslationsDict()
	if err != nil {
		t.Fatalf("load translations dict: %v", err)
	}

	verb := regexp.MustCompile(`%[sd]`)
	for key, translations := range dict {
		for _, code := range GetLanguagesList() {
			if strings.EqualFold(code, DefaultLanguage) {
				continue
			}
			value := translations[strings.ToUpper(code)]
			if strings.TrimSpace(value) == "" {
				t.Fatalf("empty %s translation for key %q", code, key)
			}
			want := strings.Join(verb.FindAllString(key, -1), "")
			if got := strings.Join(verb.FindAllString(value, -1), ""); got != want {
				t.Fatalf("format verbs differ for key %q: %q vs %q", key, want, got)
			}
		}
	}
}

func collectUsedI18nKeys() ([]string, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}

	internalDir := filepath.Join(root, "internal")
	fileSet := token.NewFileSet()
	keys := make(map[string]struct{})

	err = filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		node, err := parser.ParseFile(fileSet, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return err
		}

		ast.Inspect(node, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if !isGetCall(call, node.Name.Name) {
				return true
			}
			if len(call.Args) < 1 {
				return true
			}
			value, ok := stringLiteralValue(call.Args[0])
			if !ok || value == "" {
				return true
			}
			keys[value] = struct{}{}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(keys))
	for key := range keys {
		result = append(result, key)
	}
	sort.Strings(result)
	return result, nil
}

func collectDefinedI18nKeys() ([]string, error) {
	dict, err := loadTranslationsDict()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func loadTranslationsDict() (map[string]map[string]string, error) {
	content, err := resources.FS.ReadFile("i18n/translations.yml")
	if err != nil {
		return nil, err
	}
	dict := map[string]map[string]string{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		return nil, err
	}
	return dict, nil
}

func difference(left, right []string) []string {
	rightSet := make(map[string]struct{}, len(right))
	for _, item := range right {
		rightSet[item] = struct{}{}
	}
	diff := make([]string, 0)
	for _, item := range left {
		if _, ok := rightSet[item]; !ok {
			diff = append(diff, item)
		}
	}
	return diff
}

func stringLiteralValue(expr ast.Expr) (string, bool) {
	basic, ok := expr.(*ast.BasicLit)
	if !ok || basic.Kind != token.STRING {
		return "", false
	}
	value, err := strconv.Unquote(basic.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

// isGetCall matches i18n.Get(...) anywhere and a bare Get(...) inside package i18n.
func isGetCall(call *ast.CallExpr, pkg string) bool {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		ident, ok := fun.X.(*ast.Ident)
		return ok && ident.Name == "i18n" && fun.Sel != nil && fun.Sel.Name == "Get"
	case *ast.Ident:
		return pkg == "i18n" && fun.Name == "Get"
	}
	return false
}

func repoRoot() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime caller is unavailable")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(currentFile), "..", "..")), nil
}
