package menu

import (
	"testing"

	"github.com/resellops/backoffice/internal/authorization"
)

func TestVisible(t *testing.T) {
	adminMenu := Visible(authorization.RoleAdmin)
	superMenu := Visible(authorization.RoleSuper)
	supplierMenu := Visible(authorization.RoleSupplier)

	if len(supplierMenu) != 0 {
		t.Fatalf("suppliers have no console navigation, got %d entries", len(supplierMenu))
	}
	if len(superMenu) != len(adminMenu)+1 {
		t.Fatalf("super sees the users entry on top of the admin menu: %d vs %d", len(superMenu), len(adminMenu))
	}

	for _, entry := range adminMenu {
		if entry.Path == "/users" {
			t.Fatal("admins must not see user management")
		}
	}

	var found bool
	for _, entry := range superMenu {
		if entry.Path == "/receipts" {
			found = len(entry.Children) == 1 && entry.Children[0].Path == "/receipts/payments"
		}
	}
	if !found {
		t.Fatal("payment review child missing under receipts")
	}
}
