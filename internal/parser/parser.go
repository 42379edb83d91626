package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rpitems/internal/item"
)

// Document is a markdown item file: YAML frontmatter describing the item and
// a body used as its content.
type Document struct {
	Frontmatter Frontmatter
	Body        string
	SourceFile  string
}

type Frontmatter struct {
	Name     string       `yaml:"name"`
	GUID     string       `yaml:"guid"`
	Icon     string       `yaml:"icon"`
	Tooltip  string       `yaml:"tooltip"`
	Template string       `yaml:"template"`
	Counter  int          `yaml:"counter"`
	Actions  []ActionSpec `yaml:"actions"`
}

type ActionSpec struct {
	ID         string       `yaml:"id"`
	Label      string       `yaml:"label"`
	Methods    []MethodSpec `yaml:"methods"`
	Conditions []string     `yaml:"conditions"`
}

type MethodSpec struct {
	Type   string            `yaml:"type"`
	Params map[string]string `yaml:"params"`
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingName   = errors.New("frontmatter missing required 'name' field")
)

const (
	conditionCustomTextEmpty        = "custom_text_empty"
	conditionCounterGreaterThanZero = "counter_greater_than_zero"
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := strings.TrimSpace(string(rest[end+len("---\n"):]))

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlBytes, &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if strings.TrimSpace(fm.Name) == "" {
		return nil, ErrMissingName
	}

	for i, action := range fm.Actions {
		if strings.TrimSpace(action.Label) == "" {
			return nil, fmt.Errorf("action %d label is required", i+1)
		}
		if _, err := parseConditions(action.Conditions); err != nil {
			return nil, fmt.Errorf("action %q: %w", action.Label, err)
		}
	}

	return &Document{Frontmatter: fm, Body: body}, nil
}

// Item builds the item described by the document. Actions without an id get
// one derived by newActionID from the actions before them.
func (d *Document) Item(newActionID func(label string, existing []item.Action) string) item.Item {
	fm := d.Frontmatter
	it := item.Item{
		GUID:            strings.TrimSpace(fm.GUID),
		Name:            strings.TrimSpace(fm.Name),
		Icon:            fm.Icon,
		Tooltip:         fm.Tooltip,
		Content:         d.Body,
		ContentTemplate: strings.TrimSpace(fm.Template),
		InitialCounter:  fm.Counter,
	}
	for _, spec := range fm.Actions {
		conditions, _ := parseConditions(spec.Conditions)
		action := item.Action{
			ID:         strings.TrimSpace(spec.ID),
			Label:      spec.Label,
			Conditions: conditions,
		}
		if action.ID == "" {
			action.ID = newActionID(spec.Label, it.Actions)
		}
		for _, m := range spec.Methods {
			method := item.Method{Type: item.MethodType(strings.TrimSpace(m.Type))}
			if len(m.Params) > 0 {
				method.Params = make(map[string]string, len(m.Params))
				for k, v := range m.Params {
					method.Params[k] = v
				}
			}
			action.Methods = append(action.Methods, method)
		}
		it.Actions = append(it.Actions, action)
	}
	return it
}

func parseConditions(names []string) (item.Conditions, error) {
	var c item.Conditions
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case conditionCustomTextEmpty:
			c.CustomTextEmpty = true
		case conditionCounterGreaterThanZero:
			c.CounterGreaterThanZero = true
		default:
			return item.Conditions{}, fmt.Errorf("unknown condition: %s", name)
		}
	}
	return c, nil
}
