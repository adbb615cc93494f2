package main

import (
	"bytes"
	"context"
	_ "embed"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/internal/repository"
	"github.com/saufi-opi/mini-emr/internal/service"
	"github.com/saufi-opi/mini-emr/pkg/config"
	"github.com/saufi-opi/mini-emr/pkg/database"
	"github.com/saufi-opi/mini-emr/pkg/logger"
)

//go:embed icd10.csv
var icd10 []byte

// devPassword is only used outside production when no seed password is configured.
const devPassword = "aaAA1234"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	seeder := service.NewSeedService(
		repository.NewUserRepository(db, nil),
		repository.NewDiagnosisRepository(db, nil),
		service.NewPasswordHasher(0),
		logr,
	)

	principals := []service.SeedPrincipal{
		{Email: cfg.Seed.AdminEmail, FullName: cfg.Seed.AdminName, Password: seedPassword(cfg, cfg.Seed.AdminPassword, logr), Role: models.RoleAdmin},
		{Email: cfg.Seed.DoctorEmail, FullName: cfg.Seed.DoctorName, Password: seedPassword(cfg, cfg.Seed.DoctorPassword, logr), Role: models.RoleDoctor},
	}
	for _, principal := range principals {
		if _, err := seeder.EnsurePrincipal(ctx, principal); err != nil {
			logr.Fatal("failed to seed user", zap.String("email", principal.Email), zap.Error(err))
		}
	}

	if _, err := seeder.ImportDiagnoses(ctx, bytes.NewReader(icd10)); err != nil {
		logr.Fatal("failed to seed diagnoses", zap.Error(err))
	}
	logr.Info("seed complete")
}

func seedPassword(cfg *config.Config, configured string, logr *zap.Logger) string {
	if configured != "" {
		return configured
	}
	if cfg.Env == config.EnvProduction {
		logr.Fatal("ADMIN_PASSWORD and DOCTOR_PASSWORD must be set in production")
	}
	logr.Warn("seed password not configured, using development default")
	return devPassword
}
