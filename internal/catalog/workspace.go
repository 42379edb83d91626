package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"rpitems/internal/checksum"
	"rpitems/internal/guid"
	"rpitems/internal/item"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNoSnapshot = errors.New("no committed snapshot")
	ErrEmptyName  = errors.New("name is required")
)

// Workspace is the authoring side state: one mutable working collection, at
// most one committed snapshot and the local id counter.
type Workspace struct {
	Working  *item.Collection
	Snapshot *item.Collection
	NextID   int

	NewGUID func(seed string) string
}

func NewWorkspace() *Workspace {
	return &Workspace{
		Working: item.NewCollection(),
		NextID:  1,
	}
}

func (w *Workspace) newGUID(seed string) string {
	if w.NewGUID != nil {
		return w.NewGUID(seed)
	}
	return guid.New(seed)
}

// AddItem stores it under the next local id. A GUID is generated from the
// name when it has none.
func (w *Workspace) AddItem(it item.Item) (int, error) {
	if strings.TrimSpace(it.Name) == "" {
		return 0, fmt.Errorf("adding item: %w", ErrEmptyName)
	}
	if it.GUID == "" {
		it.GUID = w.newGUID(it.Name)
	} else if id, _, exists := w.Working.FindGUID(it.GUID); exists {
		return 0, fmt.Errorf("adding item: guid %s already used by item %d", it.GUID, id)
	}
	if w.NextID < 1 {
		w.NextID = 1
	}
	for {
		if _, taken := w.Working.Items[w.NextID]; !taken {
			break
		}
		w.NextID++
	}
	id := w.NextID
	w.NextID++
	w.Working.Items[id] = it.Clone()
	return id, nil
}

func (w *Workspace) Item(id int) (item.Item, error) {
	it, ok := w.Working.Items[id]
	if !ok {
		return item.Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return it.Clone(), nil
}

// Items returns the working items in id order.
func (w *Workspace) Items() []Entry {
	ids := w.Working.IDs()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, Entry{ID: id, Item: w.Working.Items[id].Clone()})
	}
	return out
}

// Entry pairs a local id with its item.
type Entry struct {
	ID   int
	Item item.Item
}

// UpdateItem applies fn to a copy of the item and stores the result. The GUID
// cannot be changed this way; use Rename.
func (w *Workspace) UpdateItem(id int, fn func(*item.Item)) error {
	it, ok := w.Working.Items[id]
	if !ok {
		return fmt.Errorf("updating item %d: %w", id, ErrNotFound)
	}
	updated := it.Clone()
	fn(&updated)
	updated.GUID = it.GUID
	w.Working.Items[id] = updated
	return nil
}

func (w *Workspace) RemoveItem(id int) error {
	if _, ok := w.Working.Items[id]; !ok {
		return fmt.Errorf("removing item %d: %w", id, ErrNotFound)
	}
	delete(w.Working.Items, id)
	return nil
}

// Rename is a semantic rename: the item gets a new GUID, so receivers treat it
// as a different item after the next sync.
func (w *Workspace) Rename(id int, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("renaming item %d: %w", id, ErrEmptyName)
	}
	it, ok := w.Working.Items[id]
	if !ok {
		return "", fmt.Errorf("renaming item %d: %w", id, ErrNotFound)
	}
	it = it.Clone()
	it.Name = name
	it.GUID = w.newGUID(name)
	w.Working.Items[id] = it
	return it.GUID, nil
}

// AddAction appends an action whose id is derived from label and returns the
// id.
func (w *Workspace) AddAction(id int, label string, methods []item.Method, conditions item.Conditions) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", fmt.Errorf("adding action to item %d: label is required", id)
	}
	it, ok := w.Working.Items[id]
	if !ok {
		return "", fmt.Errorf("adding action to item %d: %w", id, ErrNotFound)
	}
	it = it.Clone()
	action := item.Action{
		ID:         ActionID(label, it.Actions),
		Label:      label,
		Conditions: conditions,
	}
	for _, m := range methods {
		action.Methods = append(action.Methods, m.Clone())
	}
	it.Actions = append(it.Actions, action)
	w.Working.Items[id] = it
	return action.ID, nil
}

func (w *Workspace) RemoveAction(id int, actionID string) error {
	it, ok := w.Working.Items[id]
	if !ok {
		return fmt.Errorf("removing action from item %d: %w", id, ErrNotFound)
	}
	it = it.Clone()
	for i, action := range it.Actions {
		if action.ID == actionID {
			it.Actions = append(it.Actions[:i], it.Actions[i+1:]...)
			w.Working.Items[id] = it
			return nil
		}
	}
	return fmt.Errorf("removing action %s from item %d: %w", actionID, id, ErrNotFound)
}

// ActionID slugs label and suffixes it with _2, _3... until it does not clash
// with an existing action.
func ActionID(label string, existing []item.Action) string {
	base := slug(label)
	taken := make(map[string]struct{}, len(existing))
	for _, action := range existing {
		taken[action.ID] = struct{}{}
	}
	if _, clash := taken[base]; !clash {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
	}
}

func slug(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "action"
	}
	return s
}

// Commit replaces the snapshot with a checksummed copy of the working
// collection.
func (w *Workspace) Commit(name string, now time.Time) (*item.Collection, error) {
	snapshot, err := commit(w.Working, name, w.Snapshot, now, w.newGUID)
	if err != nil {
		return nil, err
	}
	w.Snapshot = snapshot
	return snapshot.Clone(), nil
}

// Committed returns a copy of the snapshot.
func (w *Workspace) Committed() (*item.Collection, error) {
	if w.Snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return w.Snapshot.Clone(), nil
}

// Dirty reports whether the working items differ from the committed ones.
func (w *Workspace) Dirty() bool {
	if w.Snapshot == nil {
		return w.Working.Len() > 0
	}
	return checksum.Collection(w.Working) != w.Snapshot.Metadata.Checksum
}
