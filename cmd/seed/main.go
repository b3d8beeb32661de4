package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"faceattend/internal/auth"
	"faceattend/internal/config"
	"faceattend/internal/departments"
	"faceattend/internal/models"
	"faceattend/internal/store"
	"faceattend/internal/users"
)

// Seed prepares a fresh database: applies the schema and creates the
// initial admin account so the web console has someone to log in as.
func main() {
	sample := flag.Bool("sample", false, "also create sample departments")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		log.Fatalf("schema apply failed: %v", err)
	}
	log.Println("schema ready")

	userRepo := users.NewRepository(db.Client)
	if _, _, err := userRepo.UserByEmail(ctx, cfg.SeedAdminEmail); err == nil {
		log.Printf("admin %s already exists", cfg.SeedAdminEmail)
	} else if errors.Is(err, models.ErrNotFound) {
		hash, err := auth.HashPassword(cfg.SeedAdminPassword)
		if err != nil {
			log.Fatalf("hash admin password: %v", err)
		}
		admin := models.User{
			Name:     "Administrator",
			Email:    cfg.SeedAdminEmail,
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if _, err := userRepo.Create(ctx, admin, hash); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("admin %s created", cfg.SeedAdminEmail)
	} else {
		log.Fatalf("admin lookup failed: %v", err)
	}

	if *sample {
		seedDepartments(ctx, db)
	}

	log.Println("seed complete")
}

func seedDepartments(ctx context.Context, db *store.DB) {
	repo := departments.NewRepository(db.Client)
	svc := departments.NewService(repo)
	samples := []models.Department{
		{Name: "Computer Science", Code: "CS", Location: "Building A", IsActive: true},
		{Name: "Electrical Engineering", Code: "EE", Location: "Building B", IsActive: true},
		{Name: "Mathematics", Code: "MATH", Location: "Building C", IsActive: true},
	}
	for _, d := range samples {
		if _, err := svc.Create(ctx, d); err != nil {
			// Unique violations just mean the sample already exists.
			log.Printf("sample department %s skipped: %v", d.Code, err)
			continue
		}
		log.Printf("sample department %s created", d.Code)
	}
}
