package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stockwise/fulfillment-service/internal/apperr"
)

// PGCredentialProvider serves bearer tokens from the channel_credentials
// table. Refreshing expired tokens is the job of whatever owns that table;
// this provider only refuses to hand out stale ones.
type PGCredentialProvider struct {
	DB *sqlx.DB
}

func NewPGCredentialProvider(db *sqlx.DB) *PGCredentialProvider {
	return &PGCredentialProvider{DB: db}
}

func (p *PGCredentialProvider) Token(ctx context.Context, accountID string) (string, error) {
	var cred struct {
		Token     string    `db:"token"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	query := `
        SELECT c.token, c.expires_at
        FROM channel_credentials c
        JOIN channel_accounts a ON a.credentials_ref = c.ref
        WHERE a.id = $1
    `
	err := p.DB.GetContext(ctx, &cred, query, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.Upstreamf("no credentials for account %s", accountID)
		}
		return "", err
	}
	if !cred.ExpiresAt.After(time.Now()) {
		return "", apperr.Upstreamf("credentials for account %s expired", accountID)
	}
	return cred.Token, nil
}
