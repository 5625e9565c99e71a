package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/types"
	"github.com/tekmak/kys-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "kys", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.TankLeakTest{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	for _, fk := range foreignKeys {
		if err := s.db.Exec(fk.dropSQL()).Error; err != nil {
			return fmt.Errorf("failed to reset %s: %w", fk.Name, err)
		}
		if err := s.db.Exec(fk.addSQL()).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.Name, err)
		}
	}
	return nil
}

type foreignKey struct {
	Name     string
	Table    string
	Column   string
	RefTable string
	RefCol   string
	OnDelete string
}

// Tokens are cleaned up with their user; leak tests keep denormalized
// welder/inspector names, so those users cannot be removed underneath them.
var foreignKeys = []foreignKey{
	{Name: "fk_user_token_user_id", Table: "user_token", Column: "user_id", RefTable: "user", RefCol: "id", OnDelete: "CASCADE"},
	{Name: "fk_tank_leak_test_welder_id", Table: "tank_leak_test", Column: "welder_id", RefTable: "user", RefCol: "id", OnDelete: "RESTRICT"},
	{Name: "fk_tank_leak_test_quality_inspector_id", Table: "tank_leak_test", Column: "quality_inspector_id", RefTable: "user", RefCol: "id", OnDelete: "RESTRICT"},
}

func (fk foreignKey) dropSQL() string {
	return fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;`, fk.Table, fk.Name)
}

func (fk foreignKey) addSQL() string {
	return fmt.Sprintf(`ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q(%q) ON DELETE %s`,
		fk.Table, fk.Name, fk.Column, fk.RefTable, fk.RefCol, fk.OnDelete)
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
