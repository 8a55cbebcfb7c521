// Package msgcat renders the user-facing texts (game endings, notices) from
// an embedded YAML catalog, optionally overridden by a file on disk. Keeping
// the product voice out of the coordinator keeps the texts editable without a
// rebuild of handler logic.
package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.pt.yaml
var defaultFiles embed.FS

// Catalog maps flattened dot-keys to text/template sources.
type Catalog struct {
	data map[string]string
}

// New loads the embedded defaults and then the override file, if any.
func New(overridePath string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}
	raw, err := fs.ReadFile(defaultFiles, "messages.pt.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	if err := c.apply(raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overridePath) != "" {
		b, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read message overrides: %w", err)
		}
		if err := c.apply(b); err != nil {
			return nil, fmt.Errorf("parse message overrides: %w", err)
		}
	}
	return c, nil
}

func (c *Catalog) apply(b []byte) error {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return err
	}
	return flatten(m, "", c.data)
}

func flatten(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes the template registered under key with data. Unknown keys
// and missing template fields are errors; callers fall back to a plain text.
func (c *Catalog) Render(key string, data any) (string, error) {
	tpl, ok := c.data[strings.TrimSpace(key)]
	if !ok || strings.TrimSpace(tpl) == "" {
		return "", fmt.Errorf("template not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
