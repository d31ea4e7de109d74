package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "schoolhub-demo"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	familyRepo := repository.NewFamilyMessageRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}

	schoolID, err := userRepo.CreateSchool(ctx, "SchoolHub Demo School")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create school")
	}

	fmt.Println("=== Seeding Demo School ===")

	// upsert returns the existing account when the email is taken.
	upsert := func(u *model.User) *model.User {
		u.SchoolID = schoolID
		u.PasswordHash = string(hash)
		u.Status = model.UserStatusActive
		err := userRepo.Create(ctx, u)
		if errors.Is(err, repository.ErrConflict) {
			existing, err := userRepo.GetByEmail(ctx, u.Email)
			if err != nil {
				log.Fatal().Err(err).Str("email", u.Email).Msg("Failed to load existing user")
			}
			return existing
		}
		if err != nil {
			log.Fatal().Err(err).Str("email", u.Email).Msg("Failed to create user")
		}
		return u
	}

	teacher := upsert(&model.User{
		Email: "teacher@demo.schoolhub.test", FirstName: "Maya", LastName: "Septiana", Role: model.RoleTeacher,
	})

	class := &model.Class{
		SchoolID:   schoolID,
		ClassName:  "Grade 7A",
		ClassCode:  "7A",
		GradeLevel: "7",
		Subject:    "Homeroom",
		RoomNumber: "101",
	}
	if err := classRepo.Create(ctx, class); err != nil {
		log.Fatal().Err(err).Msg("Failed to create class")
	}
	if err := classRepo.AssignTeacher(ctx, class.ID, teacher.ID, true); err != nil {
		log.Fatal().Err(err).Msg("Failed to assign teacher")
	}

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Nanda Pratama", "Oki Setiana",
		"Putri Dian", "Rafi Ahmad", "Toni Setiawan", "Wahyu Hidayat", "Zaki Anwar",
	}

	linked := 0
	for i, name := range names {
		first, last, _ := strings.Cut(name, " ")
		slug := strings.ToLower(first)

		student := upsert(&model.User{
			Email:      fmt.Sprintf("%s.%d@demo.schoolhub.test", slug, i+1),
			FirstName:  first,
			LastName:   last,
			Role:       model.RoleStudent,
			GradeLevel: "7",
		})
		if err := classRepo.Enroll(ctx, class.ID, student.ID, fmt.Sprintf("7A-%03d", i+1)); err != nil {
			log.Fatal().Err(err).Str("student", name).Msg("Failed to enroll student")
		}

		// The first five students get a parent account for messaging demos.
		if i < 5 {
			parent := upsert(&model.User{
				Email:     fmt.Sprintf("parent.%s.%d@demo.schoolhub.test", slug, i+1),
				FirstName: "Parent of " + first,
				LastName:  last,
				Role:      model.RoleParent,
			})
			if err := familyRepo.LinkParent(ctx, parent.ID, student.ID); err != nil {
				log.Fatal().Err(err).Str("student", name).Msg("Failed to link parent")
			}
			linked++
		}
	}

	fmt.Printf("\nSeed completed! Class %s has %d students, %d with linked parents.\n", class.ClassName, len(names), linked)
	fmt.Printf("All demo accounts use the password %q.\n", demoPassword)
}
