package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"raid-recruit/internal/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "raidtime123"

type demoUser struct {
	Username      string
	CharacterName string
	Server        string
	DataCenter    string
	Bio           string
	Roles         []string
	Availability  []string
	Progression   map[string]any
}

var demoUsers = []demoUser{
	{
		Username:      "lyse",
		CharacterName: "Lyse Hext",
		Server:        "Gilgamesh",
		DataCenter:    "Aether",
		Bio:           "Monk main, looking for a weeknight static.",
		Roles:         []string{"DPS"},
		Availability:  []string{"Tue 8pm-11pm ET", "Thu 8pm-11pm ET"},
		Progression:   map[string]any{"savage": "M4S cleared"},
	},
	{
		Username:      "thancred",
		CharacterName: "Thancred Waters",
		Server:        "Balmung",
		DataCenter:    "Crystal",
		Bio:           "Gunbreaker, ultimate prog experience.",
		Roles:         []string{"Tank", "DPS"},
		Availability:  []string{"Sat 2pm-6pm PT"},
		Progression:   map[string]any{"ultimate": "TOP p5"},
	},
	{
		Username:      "yshtola",
		CharacterName: "Y'shtola Rhul",
		Server:        "Siren",
		DataCenter:    "Aether",
		Roles:         []string{"Healer"},
		Availability:  []string{"Tue 8pm-11pm ET"},
	},
}

// DemoUserID derives a stable id so other seeders can reference demo users.
func DemoUserID(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("raid-recruit/demo-user/"+username))
}

type DemoUsersSeeder struct{}

func (DemoUsersSeeder) Name() string { return "demo_users" }

func (DemoUsersSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users", "id", "username", "email", "password_hash", "data_center", "roles", "progression"); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, u := range demoUsers {
			prog, err := json.Marshal(nonNilMap(u.Progression))
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO users (id, username, email, password_hash, character_name, server, data_center, bio, availability, roles, progression)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb)
				 ON CONFLICT (email) DO NOTHING`,
				DemoUserID(u.Username),
				u.Username,
				fmt.Sprintf("%s@demo.raid-recruit.local", u.Username),
				string(hash),
				u.CharacterName,
				u.Server,
				u.DataCenter,
				u.Bio,
				nonNilSlice(u.Availability),
				nonNilSlice(u.Roles),
				string(prog),
			)
			if err != nil {
				return fmt.Errorf("insert %s: %w", u.Username, err)
			}
		}
		return nil
	})
}

func nonNilSlice(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
