package item

import "sort"

// TemplatePlaceholder is replaced by an instance's custom text in ContentTemplate.
const TemplatePlaceholder = "{custom-text}"

type Item struct {
	GUID            string
	Name            string
	Icon            string
	Tooltip         string
	Content         string
	ContentTemplate string
	Actions         []Action
	InitialCounter  int
}

type Action struct {
	ID         string
	Label      string
	Methods    []Method
	Conditions Conditions
}

// Conditions gate action visibility. The zero value is always visible.
type Conditions struct {
	CustomTextEmpty        bool
	CounterGreaterThanZero bool
}

type Method struct {
	Type   MethodType
	Params map[string]string
}

type Metadata struct {
	ID       string
	Name     string
	Version  int64
	Checksum string
}

// Collection is the keyed item set. Keys are local slot ids; the GUID is the
// identity that survives a transfer.
type Collection struct {
	Items    map[int]Item
	Metadata Metadata
}

func NewCollection() *Collection {
	return &Collection{Items: make(map[int]Item)}
}

// IDs returns the item keys in ascending order.
func (c *Collection) IDs() []int {
	if c == nil {
		return nil
	}
	ids := make([]int, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// FindGUID returns the key and item carrying guid.
func (c *Collection) FindGUID(guid string) (int, Item, bool) {
	if c == nil || guid == "" {
		return 0, Item{}, false
	}
	for id, it := range c.Items {
		if it.GUID == guid {
			return id, it, true
		}
	}
	return 0, Item{}, false
}

func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := &Collection{
		Items:    make(map[int]Item, len(c.Items)),
		Metadata: c.Metadata,
	}
	for id, it := range c.Items {
		out.Items[id] = it.Clone()
	}
	return out
}

func (it Item) Clone() Item {
	out := it
	if it.Actions != nil {
		out.Actions = make([]Action, len(it.Actions))
		for i, action := range it.Actions {
			out.Actions[i] = action.Clone()
		}
	}
	return out
}

func (a Action) Clone() Action {
	out := a
	if a.Methods != nil {
		out.Methods = make([]Method, len(a.Methods))
		for i, method := range a.Methods {
			out.Methods[i] = method.Clone()
		}
	}
	return out
}

func (m Method) Clone() Method {
	out := Method{Type: m.Type}
	if m.Params != nil {
		out.Params = make(map[string]string, len(m.Params))
		for k, v := range m.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Action returns the action with the given id.
func (it Item) Action(id string) (Action, bool) {
	for _, action := range it.Actions {
		if action.ID == id {
			return action, true
		}
	}
	return Action{}, false
}
