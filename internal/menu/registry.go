package menu

import "github.com/resellops/backoffice/internal/authorization"

// Entry is one navigation node served to the admin console. Roles
// lists who may see the node; children inherit nothing and carry their
// own role gate.
type Entry struct {
	Name     string               `json:"name"`
	Path     string               `json:"path"`
	Icon     string               `json:"icon,omitempty"`
	Roles    []authorization.Role `json:"-"`
	Children []Entry              `json:"children,omitempty"`
}

var registry = []Entry{
	{
		Name:  "Dashboard",
		Path:  "/dashboard",
		Icon:  "dashboard",
		Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
	},
	{
		Name:  "Goods",
		Path:  "/goods",
		Icon:  "goods",
		Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
	},
	{
		Name:  "Orders",
		Path:  "/orders",
		Icon:  "order",
		Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
	},
	{
		Name:  "Receipts",
		Path:  "/receipts",
		Icon:  "receipt",
		Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
		Children: []Entry{
			{
				Name:  "Payment Review",
				Path:  "/receipts/payments",
				Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
			},
		},
	},
	{
		Name:  "Suppliers",
		Path:  "/accounts",
		Icon:  "supplier",
		Roles: []authorization.Role{authorization.RoleSuper, authorization.RoleAdmin},
	},
	{
		Name:  "Users",
		Path:  "/users",
		Icon:  "user",
		Roles: []authorization.Role{authorization.RoleSuper},
	},
}

// Visible returns the navigation tree filtered for a role.
func Visible(role authorization.Role) []Entry {
	return filter(registry, role)
}

func filter(entries []Entry, role authorization.Role) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !allowed(entry, role) {
			continue
		}
		entry.Children = filter(entry.Children, role)
		out = append(out, entry)
	}
	return out
}

func allowed(entry Entry, role authorization.Role) bool {
	for _, r := range entry.Roles {
		if r == role {
			return true
		}
	}
	return false
}
