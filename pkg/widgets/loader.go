package widgets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type registryFile struct {
	Widgets map[string]descriptorFile `json:"widgets" yaml:"widgets"`
}

type descriptorFile struct {
	RenderTag        string `json:"render_tag" yaml:"render_tag"`
	Category         string `json:"category" yaml:"category"`
	ContentAttribute string `json:"content_attribute" yaml:"content_attribute"`
	FormatAttribute  string `json:"format_attribute" yaml:"format_attribute"`
}

// LoadFS walks fsys for JSON/YAML registry files and registers every widget
// type they declare on reg. A type declared twice across files is an error.
// A nil fsys is a no-op.
func LoadFS(fsys fs.FS, reg *Registry) error {
	if fsys == nil {
		return nil
	}
	if reg == nil {
		return fmt.Errorf("widgets: registry is nil")
	}

	var pending []Descriptor
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRegistryFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("widgets: read %s: %w", path, err)
		}

		doc, err := parseRegistryFile(data, path)
		if err != nil {
			return err
		}

		for rawType, raw := range doc.Widgets {
			widgetType := normalizeType(rawType)
			if widgetType == "" {
				return fmt.Errorf("widgets: file %s declares an empty widget type", path)
			}
			if previous, exists := seen[widgetType]; exists {
				return fmt.Errorf("widgets: duplicate widget type %q (files %s and %s)", widgetType, previous, path)
			}
			seen[widgetType] = path

			category, err := ParseCategory(raw.Category)
			if err != nil {
				return fmt.Errorf("widgets: file %s type %q: %w", path, widgetType, err)
			}
			tag := strings.TrimSpace(raw.RenderTag)
			if tag == "" {
				tag = "widget-" + widgetType
			}
			pending = append(pending, Descriptor{
				Type:             widgetType,
				RenderTag:        tag,
				Category:         category,
				ContentAttribute: raw.ContentAttribute,
				FormatAttribute:  raw.FormatAttribute,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, desc := range pending {
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

func parseRegistryFile(data []byte, source string) (registryFile, error) {
	var doc registryFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return registryFile{}, fmt.Errorf("widgets: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return registryFile{}, fmt.Errorf("widgets: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return registryFile{}, fmt.Errorf("widgets: parse %s: %w", source, err)
	}
	return doc, nil
}

func isRegistryFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
