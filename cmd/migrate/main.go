package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Rani-Boora/campus-event-hub/internal/config"
	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

// Dev helper: rebuilds the schema straight from the bun models and seeds a
// small data set. Production schema changes go through the SQL files under
// migrations/ instead.
func main() {
	seed := flag.Bool("seed", true, "insert sample data after creating tables")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Dropping tables...")
	dropTables(ctx, db)

	log.Println("Creating tables...")
	createTables(ctx, db)

	if *seed {
		log.Println("Seeding sample data...")
		seedData(ctx, db)
	}

	log.Println("Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{(*models.Review)(nil), (*models.Registration)(nil), (*models.Event)(nil), (*models.User)(nil)}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{(*models.User)(nil), (*models.Event)(nil), (*models.Registration)(nil), (*models.Review)(nil)}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}
}

func seedData(ctx context.Context, db *bun.DB) {
	now := time.Now()

	users := []models.User{
		{ID: "user001", Email: "asha@college.edu", Name: "Asha Verma", Role: "organizer", College: "NIT Demo", CreatedAt: now},
		{ID: "user002", Email: "rahul@college.edu", Name: "Rahul Singh", Role: "student", College: "NIT Demo", CreatedAt: now},
		{ID: "user003", Email: "meera@college.edu", Name: "Meera Iyer", Role: "student", College: "NIT Demo", CreatedAt: now},
	}
	_, _ = db.NewInsert().Model(&users).Exec(ctx)

	event := models.Event{
		ID:          "event001",
		Title:       "TechFest 2026",
		Description: "Annual technology festival with workshops and talks.",
		Category:    "technical",
		Capacity:    100,
		StartDate:   now.AddDate(0, 1, 0),
		EndDate:     now.AddDate(0, 1, 2),
		Venue:       "Main Auditorium",
		RegDeadline: now.AddDate(0, 0, 25),
		CreatedBy:   "user001",
		CreatorName: "Asha Verma",
		Published:   true,
		CreatedAt:   now,
	}
	_, _ = db.NewInsert().Model(&event).Exec(ctx)

	registrations := []models.Registration{
		{ID: "reg001", EventID: "event001", UserID: "user002", Status: models.StatusApproved, Department: "CSE", Year: "3", HasGivenReview: true, CreatedAt: now},
		{ID: "reg002", EventID: "event001", UserID: "user003", Status: models.StatusPending, Department: "ECE", Year: "2", CreatedAt: now},
	}
	_, _ = db.NewInsert().Model(&registrations).Exec(ctx)

	// Cached count covers pending and approved rows.
	_, _ = db.NewUpdate().Model((*models.Event)(nil)).
		Set("registered_count = ?", 2).
		Where("id = ?", "event001").
		Exec(ctx)

	review := models.Review{
		ID:             "review001",
		EventID:        "event001",
		UserID:         "user002",
		RegistrationID: "reg001",
		Rating:         5,
		Comment:        "Great sessions, well organized.",
		WouldRecommend: true,
		IsVisible:      true,
		CreatedAt:      now,
	}
	_, _ = db.NewInsert().Model(&review).Exec(ctx)
}
