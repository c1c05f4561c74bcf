package refreshtoken

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"

	"guardian/internal/auth/models"
	"guardian/internal/storage"
	id "guardian/pkg/domain"
	"guardian/pkg/platform/tx"
)

//go:embed migrations
var migrations embed.FS

const refreshColumns = `tenant_id, client_id, user_id, refresh_token, scope, amr, exp,
	device_name, ip, location, source, user_agent, is_active, rotated_from, created_at`

const ssoColumns = `tenant_id, sso_token, client_id_issued_to, user_id, refresh_token, amr, exp,
	is_active, client_id_used_by, created_at`

// SQLStore is the relational token store. Postgres and SQLite share the
// queries; only placeholders and array binding differ.
type SQLStore struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewPostgres(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: storage.DialectPostgres}
}

func NewSQLite(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: storage.DialectSQLite}
}

// Migrate applies the embedded schema for the store's dialect.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return storage.ApplyMigrations(ctx, s.db, s.dialect, migrations, "migrations/"+string(s.dialect))
}

// Ping reports whether the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) q(query string) string {
	return storage.Rebind(s.dialect, query)
}

func (s *SQLStore) Create(ctx context.Context, rec *models.RefreshTokenRecord) error {
	if err := s.insertRefresh(ctx, rec); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *SQLStore) insertRefresh(ctx context.Context, rec *models.RefreshTokenRecord) error {
	_, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, s.q(`INSERT INTO refresh_tokens (`+refreshColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.TenantID.String(), rec.ClientID.String(), rec.UserID.String(), rec.Token,
		models.JoinScope(rec.Scopes), joinAMR(rec.AuthMethods), toMillis(rec.ExpiresAt),
		rec.Device.DeviceName, rec.Device.IP, rec.Device.Location, rec.Device.Source, rec.Device.UserAgent,
		rec.Active, rec.RotatedFrom, toMillis(rec.IssuedAt),
	)
	return err
}

func (s *SQLStore) Find(ctx context.Context, tenantID id.TenantID, token string) (*models.RefreshTokenRecord, error) {
	row := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, s.q(`SELECT `+refreshColumns+`
		FROM refresh_tokens WHERE tenant_id = ? AND refresh_token = ?`), tenantID.String(), token)
	rec, err := scanRefresh(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTokenNotFound("refresh token")
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return rec, nil
}

// Rotate deactivates oldToken and inserts next in one transaction. The
// deactivation only matches an active row, so of N concurrent rotations one
// sees RowsAffected == 1 and the rest get sentinel.ErrAlreadyUsed.
func (s *SQLStore) Rotate(ctx context.Context, tenantID id.TenantID, oldToken string, next *models.RefreshTokenRecord) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFor(ctx, s.db)
		res, err := exec.ExecContext(ctx, s.q(`UPDATE refresh_tokens SET is_active = ?
			WHERE tenant_id = ? AND refresh_token = ? AND is_active = ?`),
			false, tenantID.String(), oldToken, true)
		if err != nil {
			return fmt.Errorf("deactivate refresh token: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deactivate refresh token: %w", err)
		}
		if n != 1 {
			return errRotated()
		}

		if err := s.insertRefresh(ctx, next); err != nil {
			return fmt.Errorf("insert rotated refresh token: %w", err)
		}

		if _, err := exec.ExecContext(ctx, s.q(`UPDATE sso_tokens SET refresh_token = ?
			WHERE tenant_id = ? AND refresh_token = ? AND is_active = ?`),
			next.Token, tenantID.String(), oldToken, true); err != nil {
			return fmt.Errorf("relink sso token: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) Deactivate(ctx context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		query := `UPDATE refresh_tokens SET is_active = ? WHERE tenant_id = ? AND refresh_token = ?`
		args := []any{false, tenantID.String(), token}
		if !clientID.IsNil() {
			query += ` AND client_id = ?`
			args = append(args, clientID.String())
		}
		res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, s.q(query), args...)
		if err != nil {
			return fmt.Errorf("deactivate refresh token: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deactivate refresh token: %w", err)
		}
		if n == 0 {
			return errTokenNotFound("refresh token")
		}
		_, err = s.DeactivateSSO(ctx, tenantID, []string{token})
		return err
	})
}

func (s *SQLStore) DeactivateForUser(ctx context.Context, tenantID id.TenantID, userID id.UserID) (int64, error) {
	return s.deactivateWhere(ctx, "user_id = ?", "user_id = ?", tenantID, userID.String())
}

func (s *SQLStore) DeactivateForClient(ctx context.Context, tenantID id.TenantID, clientID id.ClientID) (int64, error) {
	return s.deactivateWhere(ctx, "client_id = ?", "client_id_issued_to = ?", tenantID, clientID.String())
}

func (s *SQLStore) DeactivateForTenant(ctx context.Context, tenantID id.TenantID) (int64, error) {
	return s.deactivateWhere(ctx, "", "", tenantID)
}

func (s *SQLStore) deactivateWhere(ctx context.Context, refreshCond, ssoCond string, tenantID id.TenantID, args ...any) (int64, error) {
	var n int64
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFor(ctx, s.db)
		bind := append([]any{false, tenantID.String(), true}, args...)

		query := `UPDATE refresh_tokens SET is_active = ? WHERE tenant_id = ? AND is_active = ?`
		if refreshCond != "" {
			query += ` AND ` + refreshCond
		}
		res, err := exec.ExecContext(ctx, s.q(query), bind...)
		if err != nil {
			return fmt.Errorf("deactivate refresh tokens: %w", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("deactivate refresh tokens: %w", err)
		}

		query = `UPDATE sso_tokens SET is_active = ? WHERE tenant_id = ? AND is_active = ?`
		if ssoCond != "" {
			query += ` AND ` + ssoCond
		}
		if _, err := exec.ExecContext(ctx, s.q(query), bind...); err != nil {
			return fmt.Errorf("deactivate sso tokens: %w", err)
		}
		return nil
	})
	return n, err
}

func (s *SQLStore) CreateSSO(ctx context.Context, rec *models.SSOTokenRecord) error {
	usedBy, err := json.Marshal(clientIDStrings(rec.ClientIDsUsedBy))
	if err != nil {
		return fmt.Errorf("encode sso clients: %w", err)
	}
	_, err = tx.ExecutorFor(ctx, s.db).ExecContext(ctx, s.q(`INSERT INTO sso_tokens (`+ssoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.TenantID.String(), rec.Token, rec.ClientIDIssuedTo.String(), rec.UserID.String(),
		rec.RefreshToken, joinAMR(rec.AuthMethods), toMillis(rec.ExpiresAt),
		rec.Active, string(usedBy), toMillis(rec.IssuedAt),
	)
	if err != nil {
		return fmt.Errorf("insert sso token: %w", err)
	}
	return nil
}

func (s *SQLStore) FindSSO(ctx context.Context, tenantID id.TenantID, token string) (*models.SSOTokenRecord, error) {
	row := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, s.q(`SELECT `+ssoColumns+`
		FROM sso_tokens WHERE tenant_id = ? AND sso_token = ?`), tenantID.String(), token)

	var (
		rec                    models.SSOTokenRecord
		tenant, issuedTo, user string
		amr, usedBy            string
		exp, created           int64
	)
	err := row.Scan(&tenant, &rec.Token, &issuedTo, &user, &rec.RefreshToken, &amr, &exp,
		&rec.Active, &usedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTokenNotFound("sso token")
	}
	if err != nil {
		return nil, fmt.Errorf("find sso token: %w", err)
	}

	var clients []string
	if err := json.Unmarshal([]byte(usedBy), &clients); err != nil {
		return nil, fmt.Errorf("decode sso clients: %w", err)
	}
	rec.TenantID = id.TenantID(tenant)
	rec.ClientIDIssuedTo = id.ClientID(issuedTo)
	rec.UserID = id.UserID(user)
	rec.AuthMethods = splitAMR(amr)
	rec.ExpiresAt = fromMillis(exp)
	rec.IssuedAt = fromMillis(created)
	for _, c := range clients {
		rec.ClientIDsUsedBy = append(rec.ClientIDsUsedBy, id.ClientID(c))
	}
	return &rec, nil
}

// AddSSOClient records clientID among the clients that signed in with an
// active SSO token.
func (s *SQLStore) AddSSOClient(ctx context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFor(ctx, s.db)
		query := `SELECT client_id_used_by FROM sso_tokens WHERE tenant_id = ? AND sso_token = ? AND is_active = ?`
		if s.dialect == storage.DialectPostgres {
			query += ` FOR UPDATE`
		}
		var usedBy string
		err := exec.QueryRowContext(ctx, s.q(query), tenantID.String(), token, true).Scan(&usedBy)
		if errors.Is(err, sql.ErrNoRows) {
			return errTokenNotFound("sso token")
		}
		if err != nil {
			return fmt.Errorf("load sso clients: %w", err)
		}

		var clients []string
		if err := json.Unmarshal([]byte(usedBy), &clients); err != nil {
			return fmt.Errorf("decode sso clients: %w", err)
		}
		if slices.Contains(clients, clientID.String()) {
			return nil
		}
		encoded, err := json.Marshal(append(clients, clientID.String()))
		if err != nil {
			return fmt.Errorf("encode sso clients: %w", err)
		}
		if _, err := exec.ExecContext(ctx, s.q(`UPDATE sso_tokens SET client_id_used_by = ?
			WHERE tenant_id = ? AND sso_token = ?`), string(encoded), tenantID.String(), token); err != nil {
			return fmt.Errorf("update sso clients: %w", err)
		}
		return nil
	})
}

// DeactivateSSO deactivates every SSO token bound to one of refreshTokens.
func (s *SQLStore) DeactivateSSO(ctx context.Context, tenantID id.TenantID, refreshTokens []string) (int64, error) {
	if len(refreshTokens) == 0 {
		return 0, nil
	}
	var (
		query string
		args  = []any{false, tenantID.String(), true}
	)
	if s.dialect == storage.DialectPostgres {
		query = `UPDATE sso_tokens SET is_active = $1 WHERE tenant_id = $2 AND is_active = $3 AND refresh_token = ANY($4)`
		args = append(args, pq.Array(refreshTokens))
	} else {
		query = `UPDATE sso_tokens SET is_active = ? WHERE tenant_id = ? AND is_active = ? AND refresh_token IN (` +
			strings.TrimSuffix(strings.Repeat("?, ", len(refreshTokens)), ", ") + `)`
		for _, t := range refreshTokens {
			args = append(args, t)
		}
	}
	res, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate sso tokens: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpired removes refresh and SSO tokens past expiry at now.
func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFor(ctx, s.db)
		for _, table := range []string{"refresh_tokens", "sso_tokens"} {
			res, err := exec.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE exp <= ?`), toMillis(now))
			if err != nil {
				return fmt.Errorf("delete expired %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefresh(row rowScanner) (*models.RefreshTokenRecord, error) {
	var (
		rec                  models.RefreshTokenRecord
		tenant, client, user string
		scope, amr           string
		exp, created         int64
	)
	err := row.Scan(&tenant, &client, &user, &rec.Token, &scope, &amr, &exp,
		&rec.Device.DeviceName, &rec.Device.IP, &rec.Device.Location, &rec.Device.Source, &rec.Device.UserAgent,
		&rec.Active, &rec.RotatedFrom, &created)
	if err != nil {
		return nil, err
	}
	rec.TenantID = id.TenantID(tenant)
	rec.ClientID = id.ClientID(client)
	rec.UserID = id.UserID(user)
	rec.Scopes = models.ParseScope(scope)
	rec.AuthMethods = splitAMR(amr)
	rec.ExpiresAt = fromMillis(exp)
	rec.IssuedAt = fromMillis(created)
	return &rec, nil
}

func clientIDStrings(ids []id.ClientID) []string {
	out := make([]string, len(ids))
	for i, c := range ids {
		out[i] = c.String()
	}
	return out
}
