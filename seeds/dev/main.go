package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/simfeed"
)

type seedFile struct {
	Organizations []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"organizations"`
	Stations []struct {
		ID             string  `yaml:"id"`
		Name           string  `yaml:"name"`
		Location       *string `yaml:"location"`
		Status         string  `yaml:"status"`
		OrganizationID *string `yaml:"organization_id"`
	} `yaml:"stations"`
	ImpactFactors []struct {
		Item       string  `yaml:"item"`
		CO2SavedKg float64 `yaml:"co2_saved_kg"`
	} `yaml:"impact_factors"`
	Profiles []struct {
		Email          string  `yaml:"email"`
		FullName       string  `yaml:"full_name"`
		Role           string  `yaml:"role"`
		OrganizationID *string `yaml:"organization_id"`
		Password       string  `yaml:"password"`
	} `yaml:"profiles"`
}

// items per category for generated detections.
var items = map[model.Category][]string{
	model.CategoryRecycle: {"plastic bottle", "aluminum can", "cardboard", "glass jar"},
	model.CategoryCompost: {"food scraps", "coffee grounds", "napkin"},
	model.CategoryTrash:   {"chip bag", "plastic wrap", "styrofoam cup"},
}

func main() {
	days := flag.Int("days", 30, "Days of detection history to generate per active station")
	perDay := flag.Int("per-day", 40, "Average detections per station per day")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	seed, err := loadSeed()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Seeding dashboard database...")
	if err := run(ctx, pool, seed, *days, *perDay); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}

// loadSeed reads seed.yaml next to this file.
func loadSeed() (*seedFile, error) {
	_, thisFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(thisFile), "seed.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed.yaml: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed.yaml: %w", err)
	}
	return &sf, nil
}

func run(ctx context.Context, pool *pgxpool.Pool, seed *seedFile, days, perDay int) error {
	fmt.Println("  Inserting organizations...")
	for _, o := range seed.Organizations {
		if _, err := pool.Exec(ctx,
			`INSERT INTO organizations (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, o.ID, o.Name); err != nil {
			return fmt.Errorf("insert organization %s: %w", o.ID, err)
		}
	}

	fmt.Println("  Inserting stations...")
	var active []string
	for _, st := range seed.Stations {
		if _, err := pool.Exec(ctx,
			`INSERT INTO stations (id, name, location, status, organization_id) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, location = EXCLUDED.location,
			   status = EXCLUDED.status, organization_id = EXCLUDED.organization_id`,
			st.ID, st.Name, st.Location, st.Status, st.OrganizationID); err != nil {
			return fmt.Errorf("insert station %s: %w", st.ID, err)
		}
		if st.Status == model.StatusActive {
			active = append(active, st.ID)
		}
	}

	fmt.Println("  Inserting impact factors...")
	for _, f := range seed.ImpactFactors {
		if _, err := pool.Exec(ctx,
			`INSERT INTO impact_factors (item, co2_saved_kg) VALUES ($1, $2)
			 ON CONFLICT (item) DO UPDATE SET co2_saved_kg = EXCLUDED.co2_saved_kg`,
			f.Item, f.CO2SavedKg); err != nil {
			return fmt.Errorf("insert impact factor %s: %w", f.Item, err)
		}
	}

	fmt.Println("  Inserting profiles...")
	for _, p := range seed.Profiles {
		hash, err := core.HashPassword(p.Password)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO profiles (id, email, full_name, role, organization_id, password_hash)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (lower(email)) DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role,
			   organization_id = EXCLUDED.organization_id, password_hash = EXCLUDED.password_hash`,
			uuid.New().String(), p.Email, p.FullName, p.Role, p.OrganizationID, hash); err != nil {
			return fmt.Errorf("insert profile %s: %w", p.Email, err)
		}
	}

	fmt.Printf("  Generating %d days of detections for %d stations...\n", days, len(active))
	n, err := seedDetections(ctx, pool, active, days, perDay, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("  Inserted %d detections\n", n)
	return nil
}

// seedDetections replaces the generated history with detections spread over
// working hours, categorized with the demo feed's distribution.
func seedDetections(ctx context.Context, pool *pgxpool.Pool, stations []string, days, perDay int, now time.Time) (int64, error) {
	if _, err := pool.Exec(ctx, `DELETE FROM detections WHERE device_id = ANY($1)`, stations); err != nil {
		return 0, fmt.Errorf("clear detections: %w", err)
	}

	var rows [][]any
	for _, station := range stations {
		for d := days - 1; d >= 0; d-- {
			day := time.Date(now.Year(), now.Month(), now.Day()-d, 8, 0, 0, 0, now.Location())
			count := perDay/2 + rand.IntN(perDay+1)
			for range count {
				at := day.Add(time.Duration(rand.Int64N(int64(9 * time.Hour))))
				if at.After(now) {
					continue
				}
				category := simfeed.Classify(rand.Float64())
				choices := items[category]
				rows = append(rows, []any{uuid.New().String(), string(category), choices[rand.IntN(len(choices))], station, at})
			}
		}
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{"detections"},
		[]string{"id", "category", "item", "device_id", "created_at"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy detections: %w", err)
	}
	return n, nil
}
