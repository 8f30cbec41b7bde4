package schema

// Domain ids of the built-in catalog.
const (
	Clients   = "clients"
	Equipment = "equipment"
	Rentals   = "rentals"
	Payments  = "payments"
	Returns   = "returns"
)

var defaultCatalog = MustCatalog(
	Domain{
		ID:          Clients,
		DisplayName: "Clients",
		Fields:      []string{"id", "name", "email", "phone", "address", "created_at"},
		Roles: map[Role][]string{
			RoleID:   {"id"},
			RoleName: {"name"},
			RoleDate: {"created_at"},
		},
		Aliases: map[Role][]string{
			RoleID:   {"client_id"},
			RoleName: {"client_name"},
		},
	},
	Domain{
		ID:          Equipment,
		DisplayName: "Equipment",
		Fields:      []string{"id", "name", "category", "description", "rate_per_hour", "quantity", "status", "created_at"},
		Roles: map[Role][]string{
			RoleID:     {"id"},
			RoleName:   {"name"},
			RoleType:   {"category"},
			RoleAmount: {"rate_per_hour"},
			RoleDate:   {"created_at"},
		},
		Aliases: map[Role][]string{
			RoleID:   {"equipment_id"},
			RoleName: {"equipment_name"},
		},
		Relations: []Relation{
			{Domain: Rentals, LocalField: "id", ForeignField: "equipment_id"},
		},
	},
	Domain{
		ID:          Rentals,
		DisplayName: "Rentals",
		Fields: []string{"id", "client_id", "equipment_id", "start_date", "end_date",
			"quantity", "rate_per_hour", "total_amount", "status", "created_at"},
		Roles: map[Role][]string{
			RoleID:     {"id"},
			RoleDate:   {"start_date", "created_at"},
			RoleAmount: {"total_amount"},
			RoleType:   {"status"},
		},
		Aliases: map[Role][]string{
			RoleID:     {"rental_id"},
			RoleDate:   {"rental_date", "start_date"},
			RoleAmount: {"total_amount"},
		},
		Relations: []Relation{
			{Domain: Clients, LocalField: "client_id", ForeignField: "id"},
			{Domain: Equipment, LocalField: "equipment_id", ForeignField: "id"},
		},
	},
	Domain{
		ID:          Payments,
		DisplayName: "Payments",
		Fields:      []string{"id", "rental_id", "client_id", "amount", "payment_type", "payment_date", "notes", "created_at"},
		Roles: map[Role][]string{
			RoleID:     {"id"},
			RoleAmount: {"amount"},
			RoleDate:   {"payment_date", "created_at"},
			RoleType:   {"payment_type"},
		},
		Aliases: map[Role][]string{
			RoleID:     {"payment_id"},
			RoleAmount: {"amount"},
			RoleDate:   {"payment_date"},
			RoleType:   {"payment_type"},
		},
		Relations: []Relation{
			{Domain: Clients, LocalField: "client_id", ForeignField: "id"},
			{Domain: Rentals, LocalField: "rental_id", ForeignField: "id"},
		},
	},
	Domain{
		ID:          Returns,
		DisplayName: "Returns",
		Fields:      []string{"id", "rental_id", "return_date", "condition", "late_fee", "notes", "created_at"},
		Roles: map[Role][]string{
			RoleID:     {"id"},
			RoleDate:   {"return_date", "created_at"},
			RoleAmount: {"late_fee"},
			RoleType:   {"condition"},
		},
		Aliases: map[Role][]string{
			RoleID:   {"return_id"},
			RoleDate: {"return_date"},
		},
		Relations: []Relation{
			{Domain: Rentals, LocalField: "rental_id", ForeignField: "id"},
		},
	},
)

// PaymentsTableFields is the canonical payments column list used when a
// payments table has no prefixed columns.
var PaymentsTableFields = []string{"amount", "payment_type", "payment_date", "notes"}

// DefaultCatalog returns the built-in rental-management catalog.
func DefaultCatalog() Catalog {
	return defaultCatalog
}
