package mysql

// Schema statements run at startup. CREATE TABLE IF NOT EXISTS keeps
// this idempotent; the accounts table matches the layout the legacy
// game server expects, so an existing game database is left untouched.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(32) NOT NULL UNIQUE,
		password CHAR(32) NOT NULL,
		salt CHAR(10) NOT NULL,
		activated TINYINT(1) NULL,
		created_at DATETIME NOT NULL,
		last_login DATETIME NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS external_identities (
		discord_id VARCHAR(20) PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		discriminator VARCHAR(4) NOT NULL DEFAULT '0',
		avatar_hash VARCHAR(64) NOT NULL DEFAULT '',
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// uniq_account enforces at-most-one primary identity per game
	// account at the database layer; the upsert maps violations to
	// the linked-elsewhere error.
	`CREATE TABLE IF NOT EXISTS account_links (
		discord_id VARCHAR(20) PRIMARY KEY,
		account_id BIGINT UNSIGNED NOT NULL,
		is_primary TINYINT(1) NOT NULL DEFAULT 1,
		linked_at DATETIME NOT NULL,
		UNIQUE KEY uniq_account (account_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS whitelist_entries (
		entry_key VARCHAR(32) PRIMARY KEY,
		kind VARCHAR(10) NOT NULL,
		added_by VARCHAR(100) NOT NULL,
		added_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS verification_sessions (
		discord_id VARCHAR(20) PRIMARY KEY,
		verified_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		source_addr VARCHAR(64) NOT NULL DEFAULT '',
		client_info VARCHAR(255) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS verification_audit_log (
		id CHAR(36) PRIMARY KEY,
		discord_id VARCHAR(20) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		source_addr VARCHAR(64) NOT NULL DEFAULT '',
		client_info VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		KEY idx_audit_discord (discord_id),
		KEY idx_audit_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS whitelist_applications (
		id CHAR(36) PRIMARY KEY,
		discord_id VARCHAR(20) NOT NULL,
		serial CHAR(32) NOT NULL,
		message TEXT NOT NULL,
		status VARCHAR(10) NOT NULL,
		created_at DATETIME NOT NULL,
		reviewed_by VARCHAR(100) NOT NULL DEFAULT '',
		reviewed_at DATETIME NULL,
		KEY idx_app_status (status),
		KEY idx_app_discord (discord_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS admin_users (
		username VARCHAR(50) PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
