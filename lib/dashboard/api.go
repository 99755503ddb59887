// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/secret"
	"github.com/bureau-foundation/flagdash/lib/session"
)

// FlagAPI is the subset of the flag service the dashboard uses.
// *flagclient.Client implements it.
type FlagAPI interface {
	ListFlags(ctx context.Context, environment featureflag.Environment) ([]featureflag.Flag, error)
	GetFlag(ctx context.Context, id int64) (featureflag.Flag, error)
	CreateFlag(ctx context.Context, flag featureflag.Flag) (featureflag.Flag, error)
	UpdateFlag(ctx context.Context, id int64, flag featureflag.Flag) (featureflag.Flag, error)
	ToggleFlag(ctx context.Context, flagKey string, environment featureflag.Environment) (*featureflag.Flag, error)
	DeleteFlag(ctx context.Context, id int64) error
	AuditLog(ctx context.Context, entityType, entityID string, size int) ([]featureflag.AuditEntry, error)
	Login(ctx context.Context, username string, password *secret.Buffer) (featureflag.LoginResponse, error)
	SetToken(token string) error
}

// SessionStore persists the operator's session. *session.Store
// implements it.
type SessionStore interface {
	Load() (*session.Session, error)
	Save(*session.Session) error
	Clear() error
}

var (
	_ FlagAPI      = (*flagclient.Client)(nil)
	_ SessionStore = (*session.Store)(nil)
)
