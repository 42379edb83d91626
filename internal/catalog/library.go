package catalog

import (
	"fmt"
	"sort"
	"strings"

	"rpitems/internal/item"
	"rpitems/internal/message"
)

// Library is a received collection indexed by GUID. Reference messages name
// items by GUID only, so this is the lookup every GIVE, TRADE and SHOW goes
// through.
type Library struct {
	collection *item.Collection
	byGUID     map[string]int
}

func NewLibrary(c *item.Collection) *Library {
	if c == nil {
		c = item.NewCollection()
	}
	l := &Library{collection: c, byGUID: make(map[string]int, c.Len())}
	for _, id := range c.IDs() {
		if g := c.Items[id].GUID; g != "" {
			if _, exists := l.byGUID[g]; !exists {
				l.byGUID[g] = id
			}
		}
	}
	return l
}

func (l *Library) Metadata() item.Metadata {
	return l.collection.Metadata
}

func (l *Library) Len() int {
	return len(l.byGUID)
}

func (l *Library) Lookup(guid string) (item.Item, bool) {
	id, ok := l.byGUID[guid]
	if !ok {
		return item.Item{}, false
	}
	return l.collection.Items[id].Clone(), true
}

// Items returns the received items sorted by name.
func (l *Library) Items() []item.Item {
	out := make([]item.Item, 0, len(l.byGUID))
	for _, id := range l.byGUID {
		out = append(out, l.collection.Items[id].Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].GUID < out[j].GUID
	})
	return out
}

// Give resolves a GIVE or TRADE reference into an instance.
func (l *Library) Give(g message.Give) (Instance, error) {
	it, ok := l.Lookup(g.GUID)
	if !ok {
		return Instance{}, fmt.Errorf("item %s: %w", g.GUID, ErrNotFound)
	}
	inst := NewInstance(it)
	inst.CustomMessage = g.CustomMessage
	inst.CustomText = g.CustomText
	if g.CustomNumber > 0 {
		inst.Counter = g.CustomNumber
	}
	return inst, nil
}

func (l *Library) Show(s message.Show) (Instance, error) {
	return l.Give(message.Give{Target: s.Target, GUID: s.GUID, CustomText: s.CustomText, CustomNumber: s.CustomNumber})
}

// Instance is an item plus the per-copy overrides carried by a reference
// message.
type Instance struct {
	Item          item.Item
	CustomMessage string
	CustomText    string
	Counter       int
}

func NewInstance(it item.Item) Instance {
	return Instance{Item: it, Counter: it.InitialCounter}
}

// Content renders the template when custom text is set and a template exists,
// otherwise the plain content.
func (i Instance) Content() string {
	if i.CustomText != "" && i.Item.ContentTemplate != "" {
		return strings.ReplaceAll(i.Item.ContentTemplate, item.TemplatePlaceholder, i.CustomText)
	}
	return i.Item.Content
}

func (i Instance) VisibleActions() []item.Action {
	var out []item.Action
	for _, action := range i.Item.Actions {
		if action.Conditions.CustomTextEmpty && i.CustomText != "" {
			continue
		}
		if action.Conditions.CounterGreaterThanZero && i.Counter <= 0 {
			continue
		}
		out = append(out, action)
	}
	return out
}
