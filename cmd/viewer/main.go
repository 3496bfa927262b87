// Viewer renders the stored directory and message log as terminal tables.
// It opens Badger read-only with the lock guard bypassed, so it can run
// while the server holds the directory.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"event-chat/domain"
	"event-chat/logs"
	"event-chat/repositories"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	opts := badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	events := repositories.NewEventRepository(db)
	messages := repositories.NewMessageRepository(db, logs.FromLevelString("WARN"), nil)

	renderUsers(users)
	renderEvents(events, messages)
}

func renderUsers(users repositories.UserRepository) {
	all, err := users.ListUsers()
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	color.Green.Println("Users")
	table := newTable([]string{"ID", "Name", "Phone", "Organizer", "Created"})
	for _, user := range all {
		table.Append([]string{
			shortID(user.ID),
			user.Name,
			user.Phone,
			fmt.Sprintf("%t", user.Organizer),
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	fmt.Println()
}

func renderEvents(events repositories.EventRepository, messages repositories.MessageRepository) {
	all, err := events.ListEvents()
	if err != nil {
		log.Fatalf("Failed to list events: %v", err)
	}

	color.Green.Println("Events")
	table := newTable([]string{"ID", "Name", "Live", "Allow-list", "Created"})
	for _, event := range all {
		table.Append([]string{
			shortID(event.ID),
			event.Name,
			fmt.Sprintf("%t", event.Live),
			strings.Join(event.AllowedPhones, " "),
			event.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	fmt.Println()

	for _, event := range all {
		renderMessages(messages, event)
	}
}

func renderMessages(messages repositories.MessageRepository, event domain.Event) {
	color.Cyan.Printf("Messages for %q (%s)\n", event.Name, shortID(event.ID))
	table := newTable([]string{"Time", "Author", "Message"})

	var cursor *string
	for {
		page, next, err := messages.ListMessages(event.ID, cursor)
		if err != nil {
			log.Fatalf("Failed to list messages for %s: %v", event.ID, err)
		}
		rows := lo.Map(page, func(m domain.Message, _ int) []string {
			return []string{m.CreatedAt.Format("15:04:05"), m.AuthorName, m.Body}
		})
		table.AppendBulk(rows)
		if next == nil {
			break
		}
		cursor = next
	}

	table.Render()
	fmt.Println()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
