// Package entity declares the relief entity kinds, the columns each kind accepts,
// and the static dependency graph consulted before deletes. Repositories are
// generic over these descriptors; nothing here touches the store.
package entity

import "fmt"

// Kind names one row type managed by the service.
type Kind string

const (
	KindCamp          Kind = "camp"
	KindVictim        Kind = "victim"
	KindMissingPerson Kind = "missing_person_report"
	KindInventory     Kind = "inventory_item"
	KindVolunteer     Kind = "volunteer"
	KindAssignment    Kind = "volunteer_assignment"
)

// FieldType is the semantic type a raw input value is coerced into.
type FieldType int

const (
	TypeText FieldType = iota
	TypeInt
	TypeDate
)

// BlankPolicy decides what a present-but-blank value does on update.
type BlankPolicy int

const (
	// BlankIgnore keeps the stored value. Required fields always use it.
	BlankIgnore BlankPolicy = iota
	// BlankNull clears the column.
	BlankNull
)

// Field is one writable column of an entity.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Aliases are accepted input keys for the same column.
	Aliases []string
	// DefaultToday fills the submission date when the value is absent or blank on create.
	DefaultToday bool
	OnBlank      BlankPolicy
}

// Lookup denormalizes a display column from a parent row onto list and get results.
type Lookup struct {
	ForeignKey string
	Table      string
	Key        string
	Column     string
	As         string
}

// Embed attaches child rows of another kind to a get result.
type Embed struct {
	As         string
	Kind       Kind
	ForeignKey string
}

// Companion is a row of another kind created in the same unit of work as its owner
// when the Trigger input is present and non-blank.
type Companion struct {
	Kind Kind
	// OwnerKey is the companion column that receives the owner's new id.
	OwnerKey string
	Trigger  string
	// Carry lists input keys copied onto the companion's field map.
	Carry []string
}

// Descriptor is the declarative definition a generic repository is parameterized by.
type Descriptor struct {
	Kind  Kind
	Table string
	Key   string
	Floor int64
	// Title prefixes success messages ("Relief camp added successfully").
	Title string
	// Noun names the kind in guard messages ("Cannot delete camp with ...").
	Noun     string
	NotFound string
	Fields   []Field
	Lookup   *Lookup
	Embeds   []Embed
	// Companion is created alongside the owner, never through the public surface.
	Companion *Companion
}

// Field returns the named field.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the required field names in declaration order.
func (d Descriptor) Required() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Columns returns the key followed by every field column.
func (d Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, d.Key)
	for _, f := range d.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

func (d Descriptor) AddedMessage() string   { return d.Title + " added successfully" }
func (d Descriptor) UpdatedMessage() string { return d.Title + " updated successfully" }
func (d Descriptor) DeletedMessage() string { return d.Title + " deleted successfully" }

// Describe returns the descriptor for kind.
func Describe(kind Kind) (Descriptor, error) {
	d, ok := descriptors[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown entity kind %q", kind)
	}
	return d, nil
}

// MustDescribe is Describe for kinds known at compile time.
func MustDescribe(kind Kind) Descriptor {
	d, err := Describe(kind)
	if err != nil {
		panic(err)
	}
	return d
}

// Kinds lists every managed kind, parents before children.
func Kinds() []Kind {
	return []Kind{KindCamp, KindVictim, KindMissingPerson, KindInventory, KindVolunteer, KindAssignment}
}
