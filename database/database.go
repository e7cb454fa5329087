package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/training_portal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the connection opened by ConnectDB. It stays nil when the service runs
// on the in-memory stores.
var DB *gorm.DB

var (
	ErrDuplicateNumber     = errors.New("certificate number already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrUserHasCertificates = errors.New("user still owns certificates")
)

func ConnectDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = db
	log.Info("Database connected")
	return db, nil
}

// Ping checks the connection held in DB. Without a database it reports healthy.
func Ping(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Certificate{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedAdmin creates the bootstrap admin account unless the email is taken.
func SeedAdmin(ctx context.Context, users UserRepository, email, password, fullName string, log *zap.Logger) error {
	if email == "" || password == "" {
		log.Warn("Admin seed skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check for admin user: %w", err)
	}
	if existing != nil {
		log.Info("Admin user already exists", zap.String("email", email))
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if fullName == "" {
		fullName = "Administrator"
	}
	admin := &models.User{
		FullName: fullName,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Info("Admin user seeded", zap.String("email", email))
	return nil
}

// UserRepository is the subset of user persistence SeedAdmin needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}
