// Package main provides a CLI tool for setting a user's role in a campaign.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("username", "", "target username (required)")
	campaignID := flag.String("campaign", "", "campaign ID (required)")
	roleName := flag.String("role", "", "role to assign: gamemaster, player, or observer (required)")
	flag.Parse()

	if *username == "" || *campaignID == "" || *roleName == "" {
		flag.Usage()
		os.Exit(1)
	}

	role, ok := permission.ParseRole(*roleName)
	if !ok {
		log.Fatalf("invalid role %q: must be one of gamemaster, player, observer", *roleName)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool.DB())
	campaigns := postgres.NewCampaignRepository(pool.DB())

	user, err := users.GetByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("looking up user %q: %v", *username, err)
	}
	c, err := campaigns.GetByID(ctx, *campaignID)
	if err != nil {
		log.Fatalf("looking up campaign %q: %v", *campaignID, err)
	}

	previous := "none"
	m, err := campaigns.Membership(ctx, user.ID, c.ID)
	switch {
	case err == nil:
		previous = string(m.Role)
	case errors.Is(err, postgres.ErrMembershipNotFound):
		m = &permission.Membership{UserID: user.ID, CampaignID: c.ID, Active: true}
	default:
		log.Fatalf("looking up membership: %v", err)
	}

	m.Role = role
	if err := campaigns.UpsertMember(ctx, *m); err != nil {
		log.Fatalf("setting role: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "set role for %s in %q: %s -> %s [%s]\n",
		user.Username, c.Name, previous, role, elapsed)
}
