// Package contextfile loads the ambient context handed to macro expansion
// from YAML, JSON or HCL files.
package contextfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"
)

// Extensions lists the supported file extensions.
var Extensions = []string{".yml", ".yaml", ".json", ".hcl"}

// Load reads path and decodes it by extension into a context mapping.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes data according to the extension of filename.
func Parse(data []byte, filename string) (map[string]any, error) {
	var (
		ctx map[string]any
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &ctx)
	case ".json":
		err = json.Unmarshal(data, &ctx)
	case ".hcl":
		ctx, err = parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("unsupported context file %q: extension must be one of %s",
			filename, strings.Join(Extensions, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse context file %s: %w", filename, err)
	}

	if ctx == nil {
		ctx = map[string]any{}
	}
	return ctx, nil
}

// parseHCL evaluates every top-level attribute without variables or
// functions, so only literal values are accepted.
func parseHCL(data []byte, filename string) (map[string]any, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("in attribute '%s': %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

// ctyToNative converts v to its natural Go counterpart. Whole numbers become
// int64 so they print without a decimal point.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		if bf := v.AsBigFloat(); bf.IsInt() {
			var i int64
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			list = append(list, native)
		}
		return list, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			key, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil
	}

	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}

// ParseAssignments turns "key=value" pairs into a mapping. A key may use dots
// to address nested mappings: "en.greeting=Hello".
func ParseAssignments(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", pair)
		}
		if err := set(out, strings.Split(key, "."), value); err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", pair, err)
		}
	}
	return out, nil
}

func set(m map[string]any, path []string, value string) error {
	for _, part := range path[:len(path)-1] {
		next, ok := m[part]
		if !ok {
			child := map[string]any{}
			m[part] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("'%s' is not a mapping", part)
		}
		m = child
	}
	m[path[len(path)-1]] = value
	return nil
}

// Merge copies src into dst, descending into mappings present in both.
// Values from src win.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				dst[k] = Merge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
