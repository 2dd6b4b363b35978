// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// Built-in demo accounts that authenticate without a backend. They
// exist so the client can be exercised against nothing at all; the
// resulting sessions are process-local and never persisted.

const localTokenPrefix = "local:"

type testAccount struct {
	password string
	name     string
	role     model.UserRole
}

var testAccounts = map[string]testAccount{
	"user@example.com":  {password: "password", name: "Demo User", role: model.RoleEndUser},
	"admin@example.com": {password: "password", name: "Demo Admin", role: model.RoleOrgAdmin},
	"super@example.com": {password: "password", name: "Demo Superadmin", role: model.RoleSuperAdmin},
}

func lookupTestAccount(email string) (testAccount, bool) {
	acct, ok := testAccounts[strings.ToLower(strings.TrimSpace(email))]
	return acct, ok
}

func (a testAccount) profile(email string) *model.Profile {
	return &model.Profile{
		User: model.User{
			ID:       uuid.NewString(),
			Email:    email,
			Name:     a.name,
			Verified: true,
			Status:   "active",
			Role:     a.role,
		},
	}
}
