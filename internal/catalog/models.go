package catalog

// Service types in the registry.
const (
	// ServiceTypeOSBB is a homeowners association (ОСББ) managing one
	// or more buildings.
	ServiceTypeOSBB = "osbb"

	// ServiceTypeManagement is a municipal managing company (ЛКП/УК).
	ServiceTypeManagement = "management_company"

	// ServiceTypeDistrict is a district administration (районна
	// адміністрація).
	ServiceTypeDistrict = "district_administration"

	// ServiceTypeUtility is a citywide utility company (КП) responsible
	// for one category, e.g. water supply.
	ServiceTypeUtility = "utility"

	// ServiceTypeEmergency is the citywide emergency dispatch service.
	ServiceTypeEmergency = "emergency"

	// ServiceTypeHotline is the municipal hotline, the last resort
	// before giving up.
	ServiceTypeHotline = "hotline"
)

// HotlineName is the synthesized fallback when no hotline row exists.
const HotlineName = "Міська гаряча лінія 1580"

// UnknownServiceName is the synthesized terminal fallback.
const UnknownServiceName = "Невідома служба"

// Category is a complaint category.
type Category struct {
	// ID is the stable category key, e.g. "roads", "water_supply".
	ID string

	// Name is the display name in Ukrainian.
	Name string

	// Description explains the category for few-shot prompts.
	Description string
}

// Service is a municipal service responsible for some class of complaints.
type Service struct {
	ID         int64
	Name       string
	Type       string
	CategoryID string // set for utility services
	District   string // set for district administrations ("Галицький")
	Phone      string
	Email      string
}

// Building is a residential building in the registry.
type Building struct {
	ID       int64
	Street   string // normalized street name, e.g. "Лева"
	Number   string // building number, e.g. "42"
	District string // district the building belongs to, e.g. "Галицький"
}

// Stats summarizes registry contents.
type Stats struct {
	Categories  int
	Services    int
	Buildings   int
	Assignments int
}
