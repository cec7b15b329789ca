package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"raid-recruit/internal/database"

	"github.com/google/uuid"
)

type demoListing struct {
	Owner        string
	Title        string
	Description  string
	ContentType  string
	ContentName  string
	DataCenter   string
	Server       string
	RolesNeeded  map[string]int
	Schedule     []string
	Requirements map[string]any
	VoiceChat    string
	State        string
}

var demoListings = []demoListing{
	{
		Owner:        "lyse",
		Title:        "Midcore static LF tank + healer",
		Description:  "Chill weeknight group clearing current savage tier.",
		ContentType:  "savage",
		ContentName:  "AAC Light-heavyweight",
		DataCenter:   "Aether",
		Server:       "Gilgamesh",
		RolesNeeded:  map[string]int{"Tank": 1, "Healer": 1, "DPS": 0},
		Schedule:     []string{"Tue 8pm-11pm ET", "Thu 8pm-11pm ET"},
		Requirements: map[string]any{"min_ilvl": 710},
		VoiceChat:    "Discord",
		State:        "recruiting",
	},
	{
		Owner:       "thancred",
		Title:       "TOP reclear group",
		Description: "Weekend reclears, must have a clear.",
		ContentType: "ultimate",
		ContentName: "The Omega Protocol",
		DataCenter:  "Crystal",
		Server:      "Balmung",
		RolesNeeded: map[string]int{"DPS": 2},
		Schedule:    []string{"Sat 2pm-6pm PT"},
		VoiceChat:   "Discord",
		State:       "recruiting",
	},
	{
		Owner:       "lyse",
		Title:       "Alt job farm (draft)",
		Description: "Still planning this one.",
		ContentType: "extreme",
		DataCenter:  "Aether",
		State:       "private",
	},
}

func DemoListingID(owner, title string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("raid-recruit/demo-listing/"+owner+"/"+title))
}

type DemoListingsSeeder struct{}

func (DemoListingsSeeder) Name() string { return "demo_listings" }

func (DemoListingsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "listings", "id", "owner_id", "state", "roles_needed", "schedule", "requirements"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, l := range demoListings {
			roles, err := json.Marshal(nonNilMap(l.RolesNeeded))
			if err != nil {
				return err
			}
			reqs, err := json.Marshal(nonNilMap(l.Requirements))
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO listings (id, title, description, owner_id, content_type, content_name, data_center, server,
					roles_needed, schedule, requirements, voice_chat, state)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11::jsonb,$12,$13)
				 ON CONFLICT (id) DO NOTHING`,
				DemoListingID(l.Owner, l.Title),
				l.Title,
				l.Description,
				DemoUserID(l.Owner),
				l.ContentType,
				l.ContentName,
				l.DataCenter,
				l.Server,
				string(roles),
				nonNilSlice(l.Schedule),
				string(reqs),
				l.VoiceChat,
				l.State,
			)
			if err != nil {
				return fmt.Errorf("insert listing %q: %w", l.Title, err)
			}
		}
		return nil
	})
}
