package main

import (
	"chat-rooms/domain"
	"chat-rooms/repositories"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Seeds a badger store with demo rooms and messages, so a fresh server
// has history to serve and the inspect tool has something to show.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	perRoom := flag.Int("count", 10, "Messages per room")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open badger at %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repositories.NewMessageRepository(db, slog.Default())

	authors := []struct {
		id       string
		username string
	}{
		{id: uuid.NewString(), username: "alice"},
		{id: uuid.NewString(), username: "bob"},
		{id: uuid.NewString(), username: "carol"},
	}
	rooms := []string{"general", "devops", "random"}

	total := 0
	base := time.Now().UTC().Add(-time.Duration(*perRoom) * time.Minute)
	for _, room := range rooms {
		for i := 0; i < *perRoom; i++ {
			author := authors[i%len(authors)]
			message := domain.Message{
				ID:        uuid.New(),
				Room:      room,
				AuthorID:  author.id,
				Username:  author.username,
				Text:      fmt.Sprintf("seed message %d in %s", i+1, room),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			if err := repo.Store(message); err != nil {
				fmt.Fprintf(os.Stderr, "Store failed: %v\n", err)
				os.Exit(1)
			}
			total++
		}
	}

	fmt.Printf("Seeded %d messages across %d rooms into %s\n", total, len(rooms), *dbPath)
}
