package db

import (
	"database/sql"
	"fmt"
	"log"

	"CrayonFM/config"
	"CrayonFM/core/auth"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist, and seeds the initial admin user.
func InitDB() error {
	if err := createUserTable(); err != nil {
		return err
	}
	if err := createMusicTable(); err != nil {
		return err
	}
	if err := createUserTokenTable(); err != nil {
		return err
	}
	if err := createFavoriteTable(); err != nil {
		return err
	}
	if err := createPlayHistoryTable(); err != nil {
		return err
	}
	if err := seedInitialUser(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUserTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS user (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		nickname VARCHAR(50) NOT NULL DEFAULT '',
		avatar VARCHAR(500) NOT NULL DEFAULT '',
		status TINYINT NOT NULL DEFAULT 1 COMMENT '0=禁用,1=正常',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create user table: %w", err)
	}
	return nil
}

func createMusicTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS music (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		artist VARCHAR(255) NOT NULL DEFAULT '',
		album VARCHAR(255) NOT NULL DEFAULT '',
		cover VARCHAR(500) NOT NULL DEFAULT '',
		lyric TEXT,
		duration INT NOT NULL DEFAULT 0 COMMENT '时长(秒)',
		file_path VARCHAR(500) NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		format VARCHAR(10) NOT NULL DEFAULT 'mp3',
		status TINYINT NOT NULL DEFAULT 1 COMMENT '0=禁用,1=正常',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_name (name),
		INDEX idx_artist (artist),
		INDEX idx_status (status),
		UNIQUE KEY uq_file_path (file_path)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create music table: %w", err)
	}
	return nil
}

func createUserTokenTable() error {
	// One live row per user: token is the primary key, user_id carries a
	// secondary index for the single-active-session invalidation step.
	query := `
	CREATE TABLE IF NOT EXISTS user_token (
		token VARCHAR(64) NOT NULL PRIMARY KEY,
		user_id INT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		extra TEXT,
		INDEX idx_user_id (user_id),
		INDEX idx_expires_at (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create user_token table: %w", err)
	}
	return nil
}

func createFavoriteTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS favorite (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL DEFAULT 0,
		music_id INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_user_id (user_id),
		INDEX idx_music_id (music_id),
		UNIQUE KEY uq_user_music (user_id, music_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create favorite table: %w", err)
	}
	return nil
}

func createPlayHistoryTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS play_history (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL DEFAULT 0,
		music_id INT NOT NULL DEFAULT 0,
		play_duration INT NOT NULL DEFAULT 0 COMMENT '播放时长(秒)',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_user_id (user_id),
		INDEX idx_music_id (music_id),
		INDEX idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create play_history table: %w", err)
	}
	return nil
}

func seedInitialUser() error {
	username := "admin"

	var existingID int64
	err := DB.QueryRow("SELECT id FROM user WHERE username = ?", username).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for existing user %q: %w", username, err)
	}
	if err == nil {
		log.Printf("Initial user %q already exists with ID %d, skipping seed.", username, existingID)
		return nil
	}

	hashed, err := auth.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("failed to hash password for initial user: %w", err)
	}

	res, err := DB.Exec("INSERT INTO user (username, password, nickname, status) VALUES (?, ?, ?, 1)",
		username, hashed, "管理员")
	if err != nil {
		return fmt.Errorf("failed to insert initial user: %w", err)
	}
	id, _ := res.LastInsertId()
	log.Printf("Initial user %q created with ID %d.", username, id)
	return nil
}
