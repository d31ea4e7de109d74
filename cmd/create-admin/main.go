package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New School Admin ===")

	school := prompt(reader, "School Name")
	firstName := prompt(reader, "First Name")
	lastName := prompt(reader, "Last Name")
	email := strings.ToLower(prompt(reader, "Email"))
	if school == "" || firstName == "" || email == "" {
		fmt.Println("Error: school, first name and email are required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	schoolID, err := userRepo.CreateSchool(ctx, school)
	if err != nil {
		log.Fatal().Err(err).Str("school", school).Msg("Failed to create school")
	}

	admin := &model.User{
		SchoolID:     schoolID,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			fmt.Printf("Error: a user with email %s already exists\n", email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin %s (%s) created for %s with ID: %s\n", admin.FullName(), admin.Email, school, admin.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("Enter %s: ", label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}
