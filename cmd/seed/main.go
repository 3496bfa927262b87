// Seed populates a Badger directory with a demo organizer, a couple of
// attendees, and one live event whose allow-list admits the organizer and
// the first attendee. Run it once against an empty BADGER_FILEPATH before
// starting the server.
package main

import (
	stderrors "errors"
	"fmt"
	"log"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"event-chat/domain"
	apperrors "event-chat/errors"
	"event-chat/repositories"
)

type Config struct {
	BadgerFilepath string   `envconfig:"BADGER_FILEPATH" required:"true"`
	EventName      string   `envconfig:"SEED_EVENT_NAME" default:"Launch Night"`
	Organizer      string   `envconfig:"SEED_ORGANIZER" default:"Ava Moreau:5550000001"`
	Attendees      []string `envconfig:"SEED_ATTENDEES" default:"Noah Leclerc:5551234567,Victor Haddad:5559876543"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	events := repositories.NewEventRepository(db)

	organizer, err := ensureUser(users, cfg.Organizer, true)
	if err != nil {
		log.Fatalf("Failed to seed organizer: %v", err)
	}
	color.Green.Printf("Organizer %s (%s) ready\n", organizer.Name, organizer.Phone)

	attendees := make([]domain.User, 0, len(cfg.Attendees))
	for _, entry := range cfg.Attendees {
		user, err := ensureUser(users, entry, false)
		if err != nil {
			log.Fatalf("Failed to seed attendee %q: %v", entry, err)
		}
		color.Green.Printf("Attendee %s (%s) ready\n", user.Name, user.Phone)
		attendees = append(attendees, user)
	}

	// Allow-list: organizer plus the first attendee. The remaining attendees
	// can join and read but their messages are rejected, which is exactly
	// the demo the viewer and the e2e scenario rely on.
	allowed := []string{organizer.Phone}
	if len(attendees) > 0 {
		allowed = append(allowed, attendees[0].Phone)
	}

	event, err := events.CreateEvent(domain.Event{
		Name:          cfg.EventName,
		Description:   "Seeded demo event",
		Live:          true,
		AllowedPhones: allowed,
	})
	if err != nil {
		log.Fatalf("Failed to seed event: %v", err)
	}

	color.Cyan.Printf("Event %q created\n", event.Name)
	color.Cyan.Printf("  id:          %s\n", event.ID)
	color.Cyan.Printf("  allow-list:  %s\n", strings.Join(event.AllowedPhones, ", "))
}

// ensureUser parses a "Name:phone" entry and creates the user, reusing the
// existing record when the phone is already registered so reseeding an
// existing directory stays idempotent.
func ensureUser(users repositories.UserRepository, entry string, organizer bool) (domain.User, error) {
	name, phone, ok := strings.Cut(entry, ":")
	if !ok {
		return domain.User{}, fmt.Errorf("entry %q is not Name:phone shaped", entry)
	}

	user, err := users.CreateUser(name, phone, organizer)
	if stderrors.Is(err, apperrors.ErrUserAlreadyExists) {
		return users.FindUserByPhone(strings.TrimSpace(phone))
	}
	return user, err
}
