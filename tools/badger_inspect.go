package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Offline inspector for the chat store: scans a key prefix and renders
// the entries as a table. Open is read-only, so it works against the
// data directory of a stopped server.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(
		fmt.Sprintf(" chat-rooms storage inspect | prefix %q ", *prefix)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Room", "Timestamp", "ID", "Author", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(toRow(rawKey, v))
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("\n%d entries\n", count)
}

// toRow renders message entries with their decoded payload; any other
// value falls back to its raw JSON.
func toRow(key string, value []byte) []string {
	parts := strings.Split(key, ":")
	room, timestamp, displayID := "-", "-", "-"

	if len(parts) >= 4 && parts[0] == "msg" {
		room = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			timestamp = time.Unix(0, tsNano).UTC().Format("2006-01-02 15:04:05")
		}
		displayID = parts[3]
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
	}

	var payload struct {
		Username string `json:"username"`
		Text     string `json:"text"`
	}
	author, text := "-", string(value)
	if err := json.Unmarshal(value, &payload); err == nil && payload.Username != "" {
		author = payload.Username
		text = payload.Text
	}

	return []string{key, room, timestamp, displayID, author, text}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
