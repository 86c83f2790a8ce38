package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/storage"
)

const mysqlErrDuplicateEntry = 1062

// Storage is a MySQL/MariaDB-backed implementation of the storage
// interface. All statements are parameterized; user input never meets
// string concatenation.
type Storage struct {
	db *sql.DB
}

// New opens a connection pool, verifies it, and applies the schema
func New(cfg Config) (*Storage, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return s, nil
}

// NewWithDB creates a Storage with an existing handle (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// Game account operations

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.GameAccount, error) {
	const query = `SELECT id, username, password, salt, activated, created_at, last_login
		FROM accounts WHERE username = ?`

	return s.scanAccount(s.db.QueryRowContext(ctx, query, username))
}

func (s *Storage) GetAccountByID(ctx context.Context, id model.AccountID) (*model.GameAccount, error) {
	const query = `SELECT id, username, password, salt, activated, created_at, last_login
		FROM accounts WHERE id = ?`

	return s.scanAccount(s.db.QueryRowContext(ctx, query, int64(id)))
}

func (s *Storage) scanAccount(row *sql.Row) (*model.GameAccount, error) {
	var (
		account   model.GameAccount
		activated sql.NullBool
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Salt,
		&activated,
		&account.CreatedAt,
		&lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	if activated.Valid {
		account.Activated = &activated.Bool
	}
	if lastLogin.Valid {
		account.LastLoginAt = &lastLogin.Time
	}
	return &account, nil
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.GameAccount) (model.AccountID, error) {
	const query = `INSERT INTO accounts (username, password, salt, activated, created_at)
		VALUES (?, ?, ?, ?, ?)`

	var activated any
	if account.Activated != nil {
		activated = *account.Activated
	}

	result, err := s.db.ExecContext(ctx, query,
		account.Username, account.PasswordHash, account.Salt, activated, account.CreatedAt)
	if isDuplicateEntry(err) {
		return 0, model.ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("inserting account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading account id: %w", err)
	}
	return model.AccountID(id), nil
}

func (s *Storage) TouchAccountLastLogin(ctx context.Context, id model.AccountID, at time.Time) error {
	const query = `UPDATE accounts SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, at, int64(id))
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// Identity operations

func (s *Storage) UpsertIdentity(ctx context.Context, identity *model.Identity) error {
	const query = `INSERT INTO external_identities
		(discord_id, username, discriminator, avatar_hash, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		username = ?, discriminator = ?, avatar_hash = ?, last_seen_at = ?`

	_, err := s.db.ExecContext(ctx, query,
		string(identity.ID), identity.Username, identity.Discriminator, identity.AvatarHash,
		identity.FirstSeenAt, identity.LastSeenAt,
		identity.Username, identity.Discriminator, identity.AvatarHash, identity.LastSeenAt)
	if err != nil {
		return fmt.Errorf("upserting identity: %w", err)
	}
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.DiscordID) (*model.Identity, error) {
	const query = `SELECT discord_id, username, discriminator, avatar_hash, first_seen_at, last_seen_at
		FROM external_identities WHERE discord_id = ?`

	var identity model.Identity
	err := s.db.QueryRowContext(ctx, query, string(id)).Scan(
		&identity.ID,
		&identity.Username,
		&identity.Discriminator,
		&identity.AvatarHash,
		&identity.FirstSeenAt,
		&identity.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying identity: %w", err)
	}
	return &identity, nil
}

// Account link operations

func (s *Storage) UpsertPrimaryLink(ctx context.Context, link *model.AccountLink) error {
	// Check-and-write runs in one transaction with the claimed account
	// row locked, and uniq_account backs it up at the constraint level,
	// so two racing links for the same account cannot both win.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning link transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var holder string
	err = tx.QueryRowContext(ctx,
		`SELECT discord_id FROM account_links WHERE account_id = ? AND is_primary = 1 FOR UPDATE`,
		int64(link.AccountID)).Scan(&holder)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking existing link: %w", err)
	}
	if err == nil && holder != string(link.DiscordID) {
		return model.ErrAccountLinkedElsewhere
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO account_links (discord_id, account_id, is_primary, linked_at)
		VALUES (?, ?, 1, ?)
		ON DUPLICATE KEY UPDATE account_id = ?, is_primary = 1, linked_at = ?`,
		string(link.DiscordID), int64(link.AccountID), link.LinkedAt,
		int64(link.AccountID), link.LinkedAt)
	if isDuplicateEntry(err) {
		// Lost the race on uniq_account after the check
		return model.ErrAccountLinkedElsewhere
	}
	if err != nil {
		return fmt.Errorf("upserting link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing link: %w", err)
	}
	return nil
}

func (s *Storage) GetPrimaryLink(ctx context.Context, id model.DiscordID) (*model.AccountLink, error) {
	const query = `SELECT discord_id, account_id, is_primary, linked_at
		FROM account_links WHERE discord_id = ? AND is_primary = 1`

	return s.scanLink(s.db.QueryRowContext(ctx, query, string(id)))
}

func (s *Storage) GetPrimaryLinkByAccount(ctx context.Context, id model.AccountID) (*model.AccountLink, error) {
	const query = `SELECT discord_id, account_id, is_primary, linked_at
		FROM account_links WHERE account_id = ? AND is_primary = 1`

	return s.scanLink(s.db.QueryRowContext(ctx, query, int64(id)))
}

func (s *Storage) scanLink(row *sql.Row) (*model.AccountLink, error) {
	var link model.AccountLink
	err := row.Scan(&link.DiscordID, &link.AccountID, &link.Primary, &link.LinkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("querying link: %w", err)
	}
	return &link, nil
}

func (s *Storage) DeleteLinks(ctx context.Context, id model.DiscordID) error {
	// No affected-row check: unlinking an unlinked identity is a no-op
	_, err := s.db.ExecContext(ctx, `DELETE FROM account_links WHERE discord_id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting links: %w", err)
	}
	return nil
}

// Whitelist operations

func (s *Storage) AddWhitelistEntry(ctx context.Context, entry *model.WhitelistEntry) error {
	const query = `INSERT INTO whitelist_entries (entry_key, kind, added_by, added_at)
		VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, entry.Key, string(entry.Kind), entry.AddedBy, entry.AddedAt)
	if isDuplicateEntry(err) {
		return model.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("inserting whitelist entry: %w", err)
	}
	return nil
}

func (s *Storage) RemoveWhitelistEntry(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM whitelist_entries WHERE entry_key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting whitelist entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrWhitelistEntryNotFound
	}
	return nil
}

func (s *Storage) GetWhitelistEntry(ctx context.Context, key string) (*model.WhitelistEntry, error) {
	const query = `SELECT entry_key, kind, added_by, added_at FROM whitelist_entries WHERE entry_key = ?`

	var entry model.WhitelistEntry
	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &entry.Kind, &entry.AddedBy, &entry.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrWhitelistEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying whitelist entry: %w", err)
	}
	return &entry, nil
}

func (s *Storage) ListWhitelistEntries(ctx context.Context) ([]*model.WhitelistEntry, error) {
	const query = `SELECT entry_key, kind, added_by, added_at FROM whitelist_entries ORDER BY added_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing whitelist entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.WhitelistEntry
	for rows.Next() {
		var entry model.WhitelistEntry
		if err := rows.Scan(&entry.Key, &entry.Kind, &entry.AddedBy, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning whitelist entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verification session operations

func (s *Storage) UpsertVerificationSession(ctx context.Context, session *model.VerificationSession) error {
	const query = `INSERT INTO verification_sessions
		(discord_id, verified_at, expires_at, source_addr, client_info)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		verified_at = ?, expires_at = ?, source_addr = ?, client_info = ?`

	_, err := s.db.ExecContext(ctx, query,
		string(session.DiscordID), session.VerifiedAt, session.ExpiresAt, session.SourceAddr, session.ClientInfo,
		session.VerifiedAt, session.ExpiresAt, session.SourceAddr, session.ClientInfo)
	if err != nil {
		return fmt.Errorf("upserting verification session: %w", err)
	}
	return nil
}

func (s *Storage) GetVerificationSession(ctx context.Context, id model.DiscordID) (*model.VerificationSession, error) {
	const query = `SELECT discord_id, verified_at, expires_at, source_addr, client_info
		FROM verification_sessions WHERE discord_id = ?`

	var session model.VerificationSession
	err := s.db.QueryRowContext(ctx, query, string(id)).Scan(
		&session.DiscordID,
		&session.VerifiedAt,
		&session.ExpiresAt,
		&session.SourceAddr,
		&session.ClientInfo,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("querying verification session: %w", err)
	}
	return &session, nil
}

// Audit log operations

func (s *Storage) AppendAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	const query = `INSERT INTO verification_audit_log
		(id, discord_id, kind, source_addr, client_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, string(entry.DiscordID), string(entry.Kind), entry.SourceAddr, entry.ClientInfo, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (s *Storage) ListAuditEntries(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	const query = `SELECT id, discord_id, kind, source_addr, client_info, created_at
		FROM verification_audit_log ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.DiscordID, &entry.Kind, &entry.SourceAddr, &entry.ClientInfo, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Whitelist application operations

func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) error {
	const query = `INSERT INTO whitelist_applications
		(id, discord_id, serial, message, status, created_at, reviewed_by, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		app.ID, string(app.DiscordID), app.Serial, app.Message, string(app.Status),
		app.CreatedAt, app.ReviewedBy, app.ReviewedAt)
	if err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}

func (s *Storage) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	const query = `SELECT id, discord_id, serial, message, status, created_at, reviewed_by, reviewed_at
		FROM whitelist_applications WHERE id = ?`

	return s.scanApplication(s.db.QueryRowContext(ctx, query, id))
}

func (s *Storage) GetOpenApplicationByIdentity(ctx context.Context, id model.DiscordID) (*model.Application, error) {
	const query = `SELECT id, discord_id, serial, message, status, created_at, reviewed_by, reviewed_at
		FROM whitelist_applications WHERE discord_id = ? AND status = 'pending'
		ORDER BY created_at DESC LIMIT 1`

	return s.scanApplication(s.db.QueryRowContext(ctx, query, string(id)))
}

func (s *Storage) scanApplication(row *sql.Row) (*model.Application, error) {
	var (
		app        model.Application
		reviewedAt sql.NullTime
	)
	err := row.Scan(&app.ID, &app.DiscordID, &app.Serial, &app.Message, &app.Status,
		&app.CreatedAt, &app.ReviewedBy, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying application: %w", err)
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	return &app, nil
}

func (s *Storage) ListApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) ([]*model.Application, error) {
	const query = `SELECT id, discord_id, serial, message, status, created_at, reviewed_by, reviewed_at
		FROM whitelist_applications WHERE status = ? ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var apps []*model.Application
	for rows.Next() {
		var (
			app        model.Application
			reviewedAt sql.NullTime
		)
		if err := rows.Scan(&app.ID, &app.DiscordID, &app.Serial, &app.Message, &app.Status,
			&app.CreatedAt, &app.ReviewedBy, &reviewedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		if reviewedAt.Valid {
			app.ReviewedAt = &reviewedAt.Time
		}
		apps = append(apps, &app)
	}
	return apps, rows.Err()
}

func (s *Storage) UpdateApplication(ctx context.Context, app *model.Application) error {
	const query = `UPDATE whitelist_applications
		SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(app.Status), app.ReviewedBy, app.ReviewedAt, app.ID)
	if err != nil {
		return fmt.Errorf("updating application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return model.ErrApplicationNotFound
	}
	return nil
}

// Admin user operations

func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	const query = `SELECT username, password_hash, created_at FROM admin_users WHERE username = ?`

	var admin model.AdminUser
	err := s.db.QueryRowContext(ctx, query, username).Scan(&admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin user: %w", err)
	}
	return &admin, nil
}

func (s *Storage) SaveAdmin(ctx context.Context, admin *model.AdminUser) error {
	const query = `INSERT INTO admin_users (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE password_hash = ?`

	_, err := s.db.ExecContext(ctx, query, admin.Username, admin.PasswordHash, admin.CreatedAt, admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("saving admin user: %w", err)
	}
	return nil
}
