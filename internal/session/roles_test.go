package session

import "testing"

func TestParseRoles(t *testing.T) {
	tests := []struct {
		roles   string
		root    bool
		admin   bool
		canEdit bool
	}{
		{"ADMIN", true, true, true},
		{" admin , user", true, true, true},
		{"MANAGER", true, false, false},
		{"ROOT", true, false, true},
		{"SUBADMIN", false, false, false},
		{"USER", false, false, false},
		{"", false, false, false},
	}

	for _, tt := range tests {
		rs := ParseRoles(tt.roles)
		if rs.IsRoot() != tt.root {
			t.Errorf("ParseRoles(%q).IsRoot() = %v, want %v", tt.roles, rs.IsRoot(), tt.root)
		}
		if rs.IsAdmin() != tt.admin {
			t.Errorf("ParseRoles(%q).IsAdmin() = %v, want %v", tt.roles, rs.IsAdmin(), tt.admin)
		}
		if rs.CanEditFeature() != tt.canEdit {
			t.Errorf("ParseRoles(%q).CanEditFeature() = %v, want %v", tt.roles, rs.CanEditFeature(), tt.canEdit)
		}
	}
}

func TestRoleSetString(t *testing.T) {
	if got := ParseRoles("USER,ADMIN").String(); got != "ADMIN,USER" {
		t.Errorf("String() = %q", got)
	}
}

func TestGuard(t *testing.T) {
	admin := Session{Roles: ParseRoles("ADMIN")}
	user := Session{Roles: ParseRoles("USER")}

	tests := []struct {
		name        string
		state       State
		session     Session
		requireRoot bool
		want        Decision
	}{
		{"loading", StateLoading, admin, false, Block},
		{"unauthenticated", StateUnauthenticated, Session{}, false, RedirectLogin},
		{"authenticated", StateAuthenticated, user, false, Allow},
		{"root page as user", StateAuthenticated, user, true, RedirectLanding},
		{"root page as admin", StateAuthenticated, admin, true, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Guard(tt.state, tt.session, tt.requireRoot); got != tt.want {
				t.Errorf("Guard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTheme(t *testing.T) {
	for _, th := range Themes {
		if got, err := ParseTheme(string(th)); err != nil || got != th {
			t.Errorf("ParseTheme(%q) = %v, %v", th, got, err)
		}
	}
	if _, err := ParseTheme("solarized"); err == nil {
		t.Error("expected error for unknown theme")
	}
}
