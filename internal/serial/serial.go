package serial

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rpitems/internal/item"
)

const (
	FieldSeparator   = "|~|"
	ItemSeparator    = "^~^"
	SectionSeparator = "#~#"
)

const (
	actionSeparator = ";"
	partSeparator   = ":"
	methodSeparator = "|"
	typeSeparator   = "~"
	paramSeparator  = "&"
	kvSeparator     = "="
	condSeparator   = ","
	methodsOpen     = "["
	methodsClose    = "]"
)

const (
	condCustomTextEmpty        = "customTextEmpty"
	condCounterGreaterThanZero = "counterGreaterThanZero"
)

var ErrMalformed = errors.New("malformed serialized record")

var (
	recordEscaper = newEscaper("|^#")
	actionEscaper = newEscaper(";:|~&=,[]")
)

// item record field positions
const (
	fieldGUID = iota
	fieldName
	fieldIcon
	fieldTooltip
	fieldContent
	fieldActions
	fieldContentTemplate
	fieldInitialCounter
	itemFieldCount
)

const minItemFields = fieldName + 1

func SerializeItem(it item.Item) string {
	fields := make([]string, itemFieldCount)
	fields[fieldGUID] = it.GUID
	fields[fieldName] = it.Name
	fields[fieldIcon] = it.Icon
	fields[fieldTooltip] = it.Tooltip
	fields[fieldContent] = it.Content
	fields[fieldActions] = serializeActions(it.Actions)
	fields[fieldContentTemplate] = it.ContentTemplate
	fields[fieldInitialCounter] = strconv.Itoa(it.InitialCounter)
	return joinEscaped(fields, FieldSeparator)
}

// DeserializeItem accepts records with fewer trailing fields than the current
// layout, defaulting the missing ones, and ignores any extra trailing fields.
func DeserializeItem(s string) (item.Item, error) {
	if s == "" {
		return item.Item{}, fmt.Errorf("deserializing item: %w", ErrMalformed)
	}
	raw := splitEscaped(s, FieldSeparator)
	if len(raw) < minItemFields {
		return item.Item{}, fmt.Errorf("deserializing item: expected at least %d fields, got %d: %w", minItemFields, len(raw), ErrMalformed)
	}
	fields := make([]string, itemFieldCount)
	for i := 0; i < itemFieldCount && i < len(raw); i++ {
		fields[i] = unescape(raw[i])
	}

	it := item.Item{
		GUID:            fields[fieldGUID],
		Name:            fields[fieldName],
		Icon:            fields[fieldIcon],
		Tooltip:         fields[fieldTooltip],
		Content:         fields[fieldContent],
		ContentTemplate: fields[fieldContentTemplate],
	}
	actions, err := deserializeActions(fields[fieldActions])
	if err != nil {
		return item.Item{}, fmt.Errorf("deserializing item %q: %w", it.Name, err)
	}
	it.Actions = actions
	if counter := strings.TrimSpace(fields[fieldInitialCounter]); counter != "" {
		n, err := strconv.Atoi(counter)
		if err != nil {
			return item.Item{}, fmt.Errorf("deserializing item %q counter: %w", it.Name, ErrMalformed)
		}
		it.InitialCounter = n
	}
	return it, nil
}

// SerializeCollection writes items in ascending key order.
func SerializeCollection(c *item.Collection) string {
	if c == nil {
		c = item.NewCollection()
	}
	meta := joinEscaped([]string{
		c.Metadata.ID,
		c.Metadata.Name,
		strconv.FormatInt(c.Metadata.Version, 10),
		c.Metadata.Checksum,
	}, FieldSeparator)

	ids := c.IDs()
	records := make([]string, 0, len(ids))
	for _, id := range ids {
		records = append(records, SerializeItem(c.Items[id]))
	}
	return meta + SectionSeparator + strings.Join(records, ItemSeparator)
}

// DeserializeCollection keys items by their 1-based position in the payload.
// A malformed item leaves its slot empty without failing the collection; the
// returned skipped count reports how many were dropped.
func DeserializeCollection(s string) (*item.Collection, error) {
	c, _, err := DeserializeCollectionSkipped(s)
	return c, err
}

func DeserializeCollectionSkipped(s string) (*item.Collection, int, error) {
	sections := splitEscapedN(s, SectionSeparator, 2)
	if len(sections) != 2 {
		return nil, 0, fmt.Errorf("deserializing collection: missing section separator: %w", ErrMalformed)
	}

	meta := splitEscaped(sections[0], FieldSeparator)
	metaFields := make([]string, 4)
	for i := 0; i < len(metaFields) && i < len(meta); i++ {
		metaFields[i] = unescape(meta[i])
	}

	c := item.NewCollection()
	c.Metadata.ID = metaFields[0]
	c.Metadata.Name = metaFields[1]
	if version := strings.TrimSpace(metaFields[2]); version != "" {
		v, err := strconv.ParseInt(version, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("deserializing collection version %q: %w", version, ErrMalformed)
		}
		c.Metadata.Version = v
	}
	c.Metadata.Checksum = metaFields[3]

	if sections[1] == "" {
		return c, 0, nil
	}

	skipped := 0
	for i, record := range splitEscaped(sections[1], ItemSeparator) {
		it, err := DeserializeItem(record)
		if err != nil {
			skipped++
			continue
		}
		c.Items[i+1] = it
	}
	return c, skipped, nil
}

func joinEscaped(fields []string, sep string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = recordEscaper.escape(f)
	}
	return strings.Join(escaped, sep)
}

func serializeActions(actions []item.Action) string {
	if len(actions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(actions))
	for _, action := range actions {
		methods := make([]string, 0, len(action.Methods))
		for _, method := range action.Methods {
			methods = append(methods, serializeMethod(method))
		}
		parts = append(parts, strings.Join([]string{
			actionEscaper.escape(action.ID),
			actionEscaper.escape(action.Label),
			methodsOpen + strings.Join(methods, methodSeparator) + methodsClose,
			serializeConditions(action.Conditions),
		}, partSeparator))
	}
	return strings.Join(parts, actionSeparator)
}

func serializeMethod(m item.Method) string {
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, actionEscaper.escape(k)+kvSeparator+actionEscaper.escape(m.Params[k]))
	}
	return actionEscaper.escape(string(m.Type)) + typeSeparator + strings.Join(params, paramSeparator)
}

func serializeConditions(c item.Conditions) string {
	var names []string
	if c.CustomTextEmpty {
		names = append(names, condCustomTextEmpty)
	}
	if c.CounterGreaterThanZero {
		names = append(names, condCounterGreaterThanZero)
	}
	return strings.Join(names, condSeparator)
}

func deserializeActions(s string) ([]item.Action, error) {
	if s == "" {
		return nil, nil
	}
	var actions []item.Action
	for _, raw := range splitEscaped(s, actionSeparator) {
		if raw == "" {
			continue
		}
		parts := splitEscaped(raw, partSeparator)
		if len(parts) < 2 {
			return nil, fmt.Errorf("action %q: %w", raw, ErrMalformed)
		}
		action := item.Action{
			ID:    unescape(parts[0]),
			Label: unescape(parts[1]),
		}
		if len(parts) > 2 {
			methods, err := deserializeMethods(parts[2])
			if err != nil {
				return nil, err
			}
			action.Methods = methods
		}
		if len(parts) > 3 {
			action.Conditions = deserializeConditions(parts[3])
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func deserializeMethods(s string) ([]item.Method, error) {
	s = trimUnescapedSuffix(strings.TrimPrefix(s, methodsOpen), methodsClose)
	if s == "" {
		return nil, nil
	}
	var methods []item.Method
	for _, raw := range splitEscaped(s, methodSeparator) {
		if raw == "" {
			continue
		}
		parts := splitEscapedN(raw, typeSeparator, 2)
		method := item.Method{Type: item.MethodType(unescape(parts[0]))}
		if len(parts) == 2 && parts[1] != "" {
			method.Params = make(map[string]string)
			for _, pair := range splitEscaped(parts[1], paramSeparator) {
				if pair == "" {
					continue
				}
				kv := splitEscapedN(pair, kvSeparator, 2)
				if len(kv) != 2 {
					return nil, fmt.Errorf("method param %q: %w", pair, ErrMalformed)
				}
				method.Params[unescape(kv[0])] = unescape(kv[1])
			}
		}
		methods = append(methods, method)
	}
	return methods, nil
}

func deserializeConditions(s string) item.Conditions {
	var c item.Conditions
	for _, name := range strings.Split(s, condSeparator) {
		switch strings.TrimSpace(name) {
		case condCustomTextEmpty:
			c.CustomTextEmpty = true
		case condCounterGreaterThanZero:
			c.CounterGreaterThanZero = true
		}
	}
	return c
}

// trimUnescapedSuffix drops suffix from s only when its first byte is not
// itself escaped.
func trimUnescapedSuffix(s, suffix string) string {
	if !strings.HasSuffix(s, suffix) {
		return s
	}
	end := len(s) - len(suffix)
	for i := 0; i < end; i++ {
		if s[i] == escapeChar {
			i++
			if i == end {
				return s
			}
		}
	}
	return s[:end]
}
