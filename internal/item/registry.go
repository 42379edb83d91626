package item

import "sort"

type MethodType string

const (
	MethodSay        MethodType = "say"
	MethodEmote      MethodType = "emote"
	MethodYell       MethodType = "yell"
	MethodParty      MethodType = "party"
	MethodRaid       MethodType = "raid"
	MethodCreateItem MethodType = "create_item"
	MethodConsume    MethodType = "consume"
	MethodRead       MethodType = "read"
	MethodSound      MethodType = "sound"
)

type MethodSpec struct {
	Type        MethodType
	Description string
	Required    []string
	Optional    []string
}

var methodRegistry = map[MethodType]MethodSpec{
	MethodSay:        {Type: MethodSay, Description: "Say a line of text", Required: []string{"text"}},
	MethodEmote:      {Type: MethodEmote, Description: "Perform a custom emote", Required: []string{"text"}},
	MethodYell:       {Type: MethodYell, Description: "Yell a line of text", Required: []string{"text"}},
	MethodParty:      {Type: MethodParty, Description: "Send text to the party", Required: []string{"text"}},
	MethodRaid:       {Type: MethodRaid, Description: "Send text to the raid", Required: []string{"text"}},
	MethodCreateItem: {Type: MethodCreateItem, Description: "Create another item instance", Required: []string{"guid"}, Optional: []string{"counter"}},
	MethodConsume:    {Type: MethodConsume, Description: "Decrement the instance counter", Optional: []string{"amount"}},
	MethodRead:       {Type: MethodRead, Description: "Open the item content"},
	MethodSound:      {Type: MethodSound, Description: "Play a sound", Required: []string{"id"}},
}

// LookupMethod returns the registered spec for t.
func LookupMethod(t MethodType) (MethodSpec, bool) {
	spec, ok := methodRegistry[t]
	return spec, ok
}

func IsKnownMethod(t MethodType) bool {
	_, ok := methodRegistry[t]
	return ok
}

// MethodSpecs returns every registered method sorted by type.
func MethodSpecs() []MethodSpec {
	specs := make([]MethodSpec, 0, len(methodRegistry))
	for _, spec := range methodRegistry {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}
