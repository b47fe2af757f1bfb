package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/duitku/debt-engine/pkg/response"
)

// Permissions the gateway can grant on the debt routes.
const (
	PermCreateDebts = "CREATE_DEBTS"
	PermViewDebts   = "VIEW_DEBTS"
	PermManageDebts = "MANAGE_DEBTS"
	PermDeleteDebts = "DELETE_DEBTS"
)

type contextKey string

const (
	householdKey   contextKey = "household_id"
	permissionsKey contextKey = "permissions"
)

// HouseholdGuard extracts the caller's household and permission set from the
// headers the upstream gateway injects after authenticating the request.
// Requests without a valid household are rejected before any handler runs.
func HouseholdGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		householdID, err := uuid.Parse(r.Header.Get("X-Household-ID"))
		if err != nil {
			response.Unauthorized(w, "missing or invalid household identity")
			return
		}

		perms := make(map[string]bool)
		for _, p := range strings.Split(r.Header.Get("X-Permissions"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				perms[p] = true
			}
		}

		ctx := context.WithValue(r.Context(), householdKey, householdID)
		ctx = context.WithValue(ctx, permissionsKey, perms)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func householdFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(householdKey).(uuid.UUID)
	return id, ok
}

func hasPermission(ctx context.Context, perm string) bool {
	perms, ok := ctx.Value(permissionsKey).(map[string]bool)
	return ok && perms[perm]
}
