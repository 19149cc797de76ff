package entity

var campLookup = &Lookup{
	ForeignKey: "camp_id",
	Table:      "relief_camp",
	Key:        "camp_id",
	Column:     "camp_name",
	As:         "camp_name",
}

var descriptors = map[Kind]Descriptor{
	KindCamp: {
		Kind:     KindCamp,
		Table:    "relief_camp",
		Key:      "camp_id",
		Floor:    1,
		Title:    "Relief camp",
		Noun:     "camp",
		NotFound: "Camp not found",
		Fields: []Field{
			{Name: "camp_name", Type: TypeText, Required: true, Aliases: []string{"name"}},
			{Name: "location", Type: TypeText, Required: true},
			{Name: "capacity", Type: TypeInt, Required: true},
			{Name: "contact_person", Type: TypeText, Required: true},
		},
	},
	KindVictim: {
		Kind:     KindVictim,
		Table:    "victim_survivor",
		Key:      "victim_id",
		Floor:    1,
		Title:    "Victim",
		Noun:     "victim",
		NotFound: "Victim not found",
		Fields: []Field{
			{Name: "first_name", Type: TypeText, Required: true},
			{Name: "last_name", Type: TypeText, Required: true},
			{Name: "date_of_birth", Type: TypeDate, OnBlank: BlankNull},
			{Name: "contact_no", Type: TypeText, OnBlank: BlankNull},
			{Name: "address", Type: TypeText, OnBlank: BlankNull},
			{Name: "camp_id", Type: TypeInt, OnBlank: BlankNull},
		},
		Lookup: campLookup,
	},
	KindMissingPerson: {
		Kind:     KindMissingPerson,
		Table:    "missing_person_report",
		Key:      "report_id",
		Floor:    1,
		Title:    "Missing person report",
		Noun:     "missing person report",
		NotFound: "Missing person report not found",
		Fields: []Field{
			{Name: "reporter_name", Type: TypeText, Required: true},
			{Name: "missing_person_name", Type: TypeText, Required: true},
			{Name: "last_seen_location", Type: TypeText, Required: true},
			{Name: "date_reported", Type: TypeDate, DefaultToday: true},
			{Name: "contact", Type: TypeText, Required: true},
			{Name: "camp_id", Type: TypeInt, OnBlank: BlankNull},
			{Name: "victim_id", Type: TypeInt, OnBlank: BlankNull},
		},
		Lookup: campLookup,
	},
	KindInventory: {
		Kind:     KindInventory,
		Table:    "inventory",
		Key:      "item_id",
		Floor:    201,
		Title:    "Inventory item",
		Noun:     "item",
		NotFound: "Inventory item not found",
		Fields: []Field{
			{Name: "item_name", Type: TypeText, Required: true},
			{Name: "quantity", Type: TypeInt, Required: true},
			{Name: "date_received", Type: TypeDate, DefaultToday: true},
			{Name: "camp_id", Type: TypeInt, OnBlank: BlankNull},
		},
		Lookup: campLookup,
	},
	KindVolunteer: {
		Kind:     KindVolunteer,
		Table:    "volunteer",
		Key:      "volunteer_id",
		Floor:    401,
		Title:    "Volunteer",
		Noun:     "volunteer",
		NotFound: "Volunteer not found",
		Fields: []Field{
			{Name: "first_name", Type: TypeText, Required: true},
			{Name: "last_name", Type: TypeText, Required: true},
			{Name: "contact_number", Type: TypeText, Required: true},
			{Name: "skills", Type: TypeText, OnBlank: BlankNull},
		},
		Embeds: []Embed{{As: "assignments", Kind: KindAssignment, ForeignKey: "volunteer_id"}},
		Companion: &Companion{
			Kind:     KindAssignment,
			OwnerKey: "volunteer_id",
			Trigger:  "camp_id",
			Carry:    []string{"camp_id", "start_date", "end_date"},
		},
	},
	KindAssignment: {
		Kind:     KindAssignment,
		Table:    "volunteer_assignment",
		Key:      "assignment_id",
		Floor:    101,
		Title:    "Volunteer assignment",
		Noun:     "assignment",
		NotFound: "Volunteer assignment not found",
		Fields: []Field{
			{Name: "volunteer_id", Type: TypeInt, Required: true},
			{Name: "camp_id", Type: TypeInt, Required: true},
			{Name: "start_date", Type: TypeDate, DefaultToday: true},
			{Name: "end_date", Type: TypeDate, OnBlank: BlankNull},
		},
		Lookup: campLookup,
	},
}

// resources maps the public URL segment of each exposed kind.
var resources = map[string]Kind{
	"relief_camps":    KindCamp,
	"victims":         KindVictim,
	"missing_persons": KindMissingPerson,
	"inventory":       KindInventory,
	"volunteers":      KindVolunteer,
}

// ByResource resolves a public resource name. Assignments have no resource.
func ByResource(resource string) (Kind, bool) {
	k, ok := resources[resource]
	return k, ok
}

// Resources lists the public resource names in a stable order.
func Resources() []string {
	return []string{"relief_camps", "victims", "missing_persons", "inventory", "volunteers"}
}
