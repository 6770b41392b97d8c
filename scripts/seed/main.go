package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/callscopehq/callscope/internal/domain/entities"
	"github.com/callscopehq/callscope/internal/infrastructure/database"
	"github.com/callscopehq/callscope/pkg/config"
	pkgjwt "github.com/callscopehq/callscope/pkg/jwt"
)

// Seeds a development database with two users sharing a group, a few
// calls in different shapes, and a correction rule, then prints access
// tokens for manual API testing.
func main() {
	log.Println("🚀 Seeding development data...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	alice := uuid.New()
	bob := uuid.New()
	team := uuid.New()

	memberships := []entities.GroupMembership{
		{UserID: alice, GroupID: team},
		{UserID: bob, GroupID: team},
	}
	for _, m := range memberships {
		if err := db.Create(&m).Error; err != nil {
			log.Fatalf("Failed to create membership: %v", err)
		}
	}

	calls := []entities.Call{
		{
			ID:              uuid.New(),
			OwnerID:         alice,
			TeamID:          &team,
			RecordingObject: "recordings/seed-inbound-en.mp3",
			Direction:       entities.CallDirectionInbound,
			DurationSeconds: 180,
			Metadata:        datatypes.JSON(`{"from": "+15125550123", "to": "+15125550188", "provider": "twilio"}`),
		},
		{
			ID:              uuid.New(),
			OwnerID:         alice,
			TeamID:          &team,
			RecordingObject: "recordings/seed-inbound-es.mp3",
			Direction:       entities.CallDirectionInbound,
			DurationSeconds: 240,
		},
		{
			ID:              uuid.New(),
			OwnerID:         bob,
			RecordingObject: "recordings/seed-short.mp3",
			Direction:       entities.CallDirectionOutbound,
			DurationSeconds: 4, // below the transcription floor
		},
		{
			ID:              uuid.New(),
			OwnerID:         bob,
			Direction:       entities.CallDirectionOutbound,
			DurationSeconds: 120, // no recording object
		},
	}
	for _, call := range calls {
		if err := db.Create(&call).Error; err != nil {
			log.Fatalf("Failed to create call: %v", err)
		}
		log.Printf("📞 Call %s (owner %s, %ds)", call.ID, call.OwnerID, call.DurationSeconds)
	}

	rule := entities.CorrectionRule{
		ID:          uuid.New(),
		OwnerID:     alice,
		FindText:    "solar dental",
		ReplaceText: "Solar Dental",
		Priority:    10,
	}
	if err := db.Create(&rule).Error; err != nil {
		log.Fatalf("Failed to create correction rule: %v", err)
	}

	users := []struct {
		id    uuid.UUID
		email string
	}{
		{alice, "alice@test.local"},
		{bob, "bob@test.local"},
	}
	fmt.Println()
	for _, u := range users {
		token, err := jwtManager.GenerateAccessToken(u.id, u.email)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", u.email, err)
		}
		fmt.Printf("%s\n  user_id: %s\n  token:   %s\n\n", u.email, u.id, token)
	}

	log.Println("✅ Seed complete")
}
