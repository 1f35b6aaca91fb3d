package database

import (
	"fmt"
	"os"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(databaseURL string) error {
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "collegedost")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// AllModels lists every model for migration, shared with the test setup
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.PhoneOTP{},
		&models.Post{},
		&models.Tag{},
		&models.PostView{},
		&models.Like{},
		&models.Comment{},
	}
}

// createIndexes creates performance indexes beyond what AutoMigrate emits
func createIndexes() error {
	// User lookups are case-insensitive
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Feed fetch tiers: recent window, like rank, comment rank
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC, id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_like_count ON posts (like_count DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_comment_count ON posts (comment_count DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_exam_created ON posts (exam_type, created_at DESC)")

	// Tag matching is case-insensitive
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_tags_name_lower ON tags (LOWER(name))")

	// View count aggregation
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_post_views_post ON post_views (post_id)")

	// One like per (user, post) pair
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_likes_unique ON likes (post_id, user_id)")

	// One follow edge per pair
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_follows_unique ON follows (follower_id, followee_id) WHERE deleted_at IS NULL")

	// Comment retrieval per post
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id) WHERE parent_id IS NOT NULL")

	// Pending OTP lookups
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_phone_otps_phone_created ON phone_otps (phone, created_at DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
