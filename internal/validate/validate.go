package validate

import (
	"fmt"
	"strings"

	"rpitems/internal/item"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingRequired     = "missing_required_field"
	codeDuplicateGUID       = "duplicate_guid"
	codeDuplicateActionID   = "duplicate_action_id"
	codeUnknownMethodType   = "unknown_method_type"
	codeMissingMethodParam  = "missing_method_param"
	codeTemplatePlaceholder = "template_without_placeholder"
	codeNegativeCounter     = "negative_counter"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	ItemID   int
	Item     string
	Action   string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *Report) filter(severity Severity) []Issue {
	if r == nil {
		return nil
	}
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Error is returned when a collection fails validation. It carries only the
// error-severity issues.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	first := e.Issues[0]
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation failed: %s", describe(first))
	}
	return fmt.Sprintf("validation failed: %s (and %d more)", describe(first), len(e.Issues)-1)
}

func describe(issue Issue) string {
	if issue.Item == "" {
		return issue.Message
	}
	return fmt.Sprintf("%s: %s", issue.Item, issue.Message)
}

// field describes one required string field of a record type.
type field[T any] struct {
	name string
	get  func(T) string
}

var itemFields = []field[item.Item]{
	{name: "name", get: func(it item.Item) string { return it.Name }},
	{name: "guid", get: func(it item.Item) string { return it.GUID }},
}

var actionFields = []field[item.Action]{
	{name: "id", get: func(a item.Action) string { return a.ID }},
	{name: "label", get: func(a item.Action) string { return a.Label }},
}

var methodFields = []field[item.Method]{
	{name: "type", get: func(m item.Method) string { return string(m.Type) }},
}

func missing[T any](fields []field[T], record T) []string {
	var names []string
	for _, f := range fields {
		if strings.TrimSpace(f.get(record)) == "" {
			names = append(names, f.name)
		}
	}
	return names
}

// Run checks every item in c.
func Run(c *item.Collection) *Report {
	report := &Report{}
	if c == nil {
		return report
	}

	guids := make(map[string]int)
	for _, id := range c.IDs() {
		it := c.Items[id]
		report.Issues = append(report.Issues, Item(id, it)...)
		if it.GUID == "" {
			continue
		}
		if other, exists := guids[it.GUID]; exists {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateGUID,
				Message:  fmt.Sprintf("guid %s already used by item %d", it.GUID, other),
				ItemID:   id,
				Item:     it.Name,
			})
			continue
		}
		guids[it.GUID] = id
	}
	return report
}

// Check returns an *Error when c has error-severity issues.
func Check(c *item.Collection) error {
	report := Run(c)
	if errs := report.Errors(); len(errs) > 0 {
		return &Error{Issues: errs}
	}
	return nil
}

// Item checks a single item and its actions.
func Item(id int, it item.Item) []Issue {
	var issues []Issue
	for _, name := range missing(itemFields, it) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeMissingRequired,
			Message:  fmt.Sprintf("item %s is required", name),
			ItemID:   id,
			Item:     it.Name,
		})
	}
	if it.InitialCounter < 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeNegativeCounter,
			Message:  fmt.Sprintf("initial counter is negative: %d", it.InitialCounter),
			ItemID:   id,
			Item:     it.Name,
		})
	}
	if it.ContentTemplate != "" && !strings.Contains(it.ContentTemplate, item.TemplatePlaceholder) {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeTemplatePlaceholder,
			Message:  fmt.Sprintf("content template has no %s placeholder", item.TemplatePlaceholder),
			ItemID:   id,
			Item:     it.Name,
		})
	}

	seen := make(map[string]struct{})
	for i, action := range it.Actions {
		for _, name := range missing(actionFields, action) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingRequired,
				Message:  fmt.Sprintf("action %d %s is required", i+1, name),
				ItemID:   id,
				Item:     it.Name,
				Action:   action.ID,
			})
		}
		if action.ID != "" {
			if _, exists := seen[action.ID]; exists {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     codeDuplicateActionID,
					Message:  fmt.Sprintf("duplicate action id: %s", action.ID),
					ItemID:   id,
					Item:     it.Name,
					Action:   action.ID,
				})
			}
			seen[action.ID] = struct{}{}
		}
		issues = append(issues, methodIssues(id, it.Name, action)...)
	}
	return issues
}

func methodIssues(id int, itemName string, action item.Action) []Issue {
	var issues []Issue
	for i, method := range action.Methods {
		for _, name := range missing(methodFields, method) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingRequired,
				Message:  fmt.Sprintf("method %d %s is required", i+1, name),
				ItemID:   id,
				Item:     itemName,
				Action:   action.ID,
			})
		}
		if method.Type == "" {
			continue
		}
		spec, ok := item.LookupMethod(method.Type)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownMethodType,
				Message:  fmt.Sprintf("unknown method type: %s", method.Type),
				ItemID:   id,
				Item:     itemName,
				Action:   action.ID,
			})
			continue
		}
		for _, key := range spec.Required {
			if strings.TrimSpace(method.Params[key]) == "" {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeMissingMethodParam,
					Message:  fmt.Sprintf("method %s is missing parameter %s", method.Type, key),
					ItemID:   id,
					Item:     itemName,
					Action:   action.ID,
				})
			}
		}
	}
	return issues
}
