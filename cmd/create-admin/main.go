package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/exstem-online/internal/bootstrap"
	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/logger"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
	"github.com/stemsi/exstem-online/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Open Store ────────────────────────────────────────────────────
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	userService := service.NewUserService(store, service.NewAuthService(cfg), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	prompt := func(label string) string {
		fmt.Printf("Enter %s: ", label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	req := model.RegisterRequest{
		Username: prompt("Username"),
		FullName: prompt("Full Name"),
		Email:    prompt("Email"),
	}
	if req.Username == "" || req.FullName == "" || req.Email == "" {
		fmt.Println("Error: username, full name and email are required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println() // Newline after password input
	req.Password = string(bytePassword)
	if len(req.Password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	admin, err := userService.CreateAdmin(ctx, req)
	if errors.Is(err, repository.ErrDuplicateUser) {
		fmt.Println("Error: username or email already exists")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", admin.Username, admin.Email, admin.ID)
}
