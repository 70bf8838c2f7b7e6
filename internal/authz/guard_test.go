package authz

import (
	"testing"

	"noteshare/internal/model"
)

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name    string
		actor   *Actor
		ownerID string
		want    bool
	}{
		{"owner can mutate", &Actor{ID: "u1", Role: model.UserRoleUser}, "u1", true},
		{"non-owner denied", &Actor{ID: "u2", Role: model.UserRoleUser}, "u1", false},
		{"admin can mutate anything", &Actor{ID: "adm", Role: model.UserRoleAdmin}, "u1", true},
		{"admin can mutate own", &Actor{ID: "adm", Role: model.UserRoleAdmin}, "adm", true},
		{"anonymous denied", nil, "u1", false},
		{"empty owner still denies non-owner", &Actor{ID: "u1", Role: model.UserRoleUser}, "", false},
		{"unknown role treated as user", &Actor{ID: "u1", Role: "moderator"}, "u2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.actor, tt.ownerID); got != tt.want {
				t.Errorf("CanMutate(%+v, %q) = %v, want %v", tt.actor, tt.ownerID, got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if (&Actor{ID: "u1", Role: model.UserRoleUser}).IsAdmin() {
		t.Error("user must not be admin")
	}
	if !(&Actor{ID: "a", Role: model.UserRoleAdmin}).IsAdmin() {
		t.Error("admin must be admin")
	}
	var a *Actor
	if a.IsAdmin() {
		t.Error("nil actor must not be admin")
	}
}
