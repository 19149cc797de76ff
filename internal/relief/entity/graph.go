package entity

// Dependent is a table holding a foreign reference to another kind.
// Table is used directly so tables outside the managed kinds (donor,
// donation, supply) are checked the same way.
type Dependent struct {
	Table      string
	ForeignKey string
	// Label completes "Cannot delete <noun> with <label>".
	Label string
}

// graph lists, per kind, the dependents that block a delete, in check order.
var graph = map[Kind][]Dependent{
	KindCamp: {
		{Table: "victim_survivor", ForeignKey: "camp_id", Label: "associated victims"},
		{Table: "inventory", ForeignKey: "camp_id", Label: "associated inventory items"},
		{Table: "volunteer_assignment", ForeignKey: "camp_id", Label: "assigned volunteers"},
		{Table: "missing_person_report", ForeignKey: "camp_id", Label: "associated missing person reports"},
	},
	KindVictim: {
		{Table: "missing_person_report", ForeignKey: "victim_id", Label: "associated missing person reports"},
	},
	KindInventory: {
		{Table: "donor", ForeignKey: "item_id", Label: "associated donors"},
		{Table: "donation", ForeignKey: "item_id", Label: "associated donations"},
		{Table: "supply", ForeignKey: "item_id", Label: "associated supplies"},
	},
	KindMissingPerson: nil,
	KindVolunteer:     nil,
}

// cascades lists owned rows deleted immediately before their owner instead of blocking it.
var cascades = map[Kind][]Dependent{
	KindVolunteer: {
		{Table: "volunteer_assignment", ForeignKey: "volunteer_id", Label: "assignments"},
	},
}

// Dependents returns the blocking dependents of kind in check order.
func Dependents(kind Kind) []Dependent {
	return graph[kind]
}

// Cascades returns the owned rows removed together with kind.
func Cascades(kind Kind) []Dependent {
	return cascades[kind]
}

// ConflictMessage is the caller-facing reason a delete was refused.
func ConflictMessage(d Descriptor, dep Dependent) string {
	return "Cannot delete " + d.Noun + " with " + dep.Label
}
