// Package main provides a tool to seed the database with a demo notebook.
//
// It creates a demo user (unless one with the email already exists) and a
// small set of linked, tagged notes for trying out search, tag listings and
// backlinks.
//
// Usage:
//
//	DATA_PATH=~/Zettel go run ./cmd/seed
//	DATA_PATH=~/Zettel go run ./cmd/seed --email me@example.com --password secret-pass
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/zettelapp/zettel-server/internal/config"
	"github.com/zettelapp/zettel-server/internal/service"
	"github.com/zettelapp/zettel-server/internal/store/sqlite"
	"github.com/zettelapp/zettel-server/internal/validation"
)

var (
	email    = flag.String("email", "demo@example.com", "Email of the demo user")
	password = flag.String("password", "demo-password", "Password of the demo user (used only when creating it)")
)

// demoNotes are created in order, so note N can link to any note before it.
var demoNotes = []service.NoteRequest{
	{
		Title: "Zettelkasten",
		Text:  "A slip box: one idea per note, every note numbered, notes linked by number.",
		Tags:  []string{"method"},
	},
	{
		Title: "Atomic notes",
		Text:  "Keep each note to a single idea so it can be linked from many places. See [the method](1).",
		Tags:  []string{"method", "writing"},
	},
	{
		Title: "Linking by number",
		Text:  "Numbers never change, so links survive title edits. Builds on [atomic notes](2) and [the method](1).",
		Tags:  []string{"method"},
	},
	{
		Title: "Reading list",
		Text:  "How to Take Smart Notes. ~~Finish by Friday~~ whenever.",
		Tags:  []string{"books"},
	},
}

func main() {
	flag.Parse()
	*email = strings.ToLower(strings.TrimSpace(*email))

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Zettel")
	}
	dbPath := filepath.Join(dataPath, config.DatabaseFile)

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	notes := service.NewNoteService(s, validation.New(), nil)

	userID, err := ensureUser(ctx, s)
	if err != nil {
		log.Fatalf("Failed to prepare demo user: %v", err)
	}

	existing, err := notes.List(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to list notes: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("User %s already has %d notes, nothing to do\n", *email, len(existing))
		return
	}

	for _, req := range demoNotes {
		n, err := notes.Create(ctx, userID, req)
		if err != nil {
			log.Fatalf("Failed to create note %q: %v", req.Title, err)
		}
		fmt.Printf("  #%d %s %v\n", n.LocalID, n.Title, n.TagTexts())
	}

	fmt.Printf("\nSeeded %d notes for %s\n", len(demoNotes), *email)
}

// ensureUser returns the id of the demo user, creating it when missing.
func ensureUser(ctx context.Context, s *sqlite.Store) (string, error) {
	user, found, err := s.GetUserByEmail(ctx, *email)
	if err != nil {
		return "", err
	}
	if found {
		fmt.Printf("Using existing user %s (%s)\n", user.Email, user.ID)
		return user.ID, nil
	}

	user, err = s.AddUser(ctx, *email, *password)
	if err != nil {
		return "", err
	}
	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return user.ID, nil
}
