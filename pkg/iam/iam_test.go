package iam_test

import (
	"testing"

	"github.com/Abraxas-365/keystone/pkg/iam"
)

func TestPrincipalHasRole(t *testing.T) {
	p := &iam.Principal{Role: iam.RoleRegular}

	if !p.HasRole(iam.RoleRegular) {
		t.Error("exact role not matched")
	}
	if !p.HasRole(iam.RoleAdmin, iam.RoleRegular) {
		t.Error("any-of semantics broken")
	}
	if p.HasRole(iam.RoleAdmin) {
		t.Error("matched a role the principal does not hold")
	}
	if p.HasRole() {
		t.Error("empty role list must not match")
	}
}

func TestPrincipalHasAllPermissions(t *testing.T) {
	p := &iam.Principal{Permissions: []iam.Permission{"a", "b", "c"}}

	if !p.HasAllPermissions("a", "c") {
		t.Error("subset not matched")
	}
	if p.HasAllPermissions("a", "d") {
		t.Error("missing permission not detected")
	}
	if !p.HasAllPermissions() {
		t.Error("empty requirement must pass")
	}
}
