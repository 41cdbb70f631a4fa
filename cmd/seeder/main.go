package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/susatyo441/food-app/pkg/config"
	"github.com/susatyo441/food-app/pkg/database"
)

var cfg = config.New()

// words used for generating posts and variants
var (
	dishes     = []string{"Nasi Goreng", "Rendang", "Soto Ayam", "Gado-Gado", "Sate", "Bakso", "Mie Goreng", "Pecel", "Rawon", "Gudeg"}
	adjectives = []string{"Homemade", "Fresh", "Leftover", "Catering", "Surplus", "Extra", "Warm", "Frozen", "Packed", "Party"}
	portions   = []string{"Small portion", "Regular portion", "Large portion", "Family pack"}
	names      = []string{"Andi", "Budi", "Citra", "Dewi", "Eka", "Fajar", "Gita", "Hadi", "Indah", "Joko"}
)

func main() {
	t0 := time.Now()
	defer func() { log.Printf("Demo data generated. Elapsed: %s", time.Since(t0)) }()

	db, closeDB, err := database.New(cfg.PostgresAddr, cfg.PostgresDB, cfg.PostgresUser, cfg.PostgresPassword)
	if err != nil {
		log.Fatalf("### Can't init database: %v", err)
	}
	defer closeDB()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("### Can't run migrations: %v", err)
	}

	if err := generate(db); err != nil {
		log.Fatalf("### Can't generate demo data: %v", err)
	}
}

func generate(db *sql.DB) error {
	now := time.Now()

	userIDs := make([]int, 0, cfg.SeedUsers)

	err := database.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		for i := 0; i < cfg.SeedUsers; i++ {
			name := fmt.Sprintf("%s %d", names[rand.Intn(len(names))], i+1)

			var id int
			if err := tx.QueryRow(`insert into users (name, created_at) values ($1, $2) returning id`, name, now).Scan(&id); err != nil {
				return fmt.Errorf("can't insert user: %w", err)
			}

			if _, err := tx.Exec(`insert into points (user_id, points, updated_at) values ($1, $2, $3)`, id, cfg.SeedStartPoints, now); err != nil {
				return fmt.Errorf("can't insert point balance: %w", err)
			}

			userIDs = append(userIDs, id)
		}

		for i := 0; i < cfg.SeedPosts; i++ {
			owner := userIDs[rand.Intn(len(userIDs))]
			title := fmt.Sprintf("%s %s", adjectives[rand.Intn(len(adjectives))], dishes[rand.Intn(len(dishes))])

			var postID int
			err := tx.QueryRow(
				`insert into posts (user_id, title, body, status, created_at) values ($1, $2, $3, 'visible', $4) returning id`,
				owner, title, "Jl. Contoh No. 1 | -6.2,106.8", now,
			).Scan(&postID)
			if err != nil {
				return fmt.Errorf("can't insert post: %w", err)
			}

			for j := 0; j < 1+rand.Intn(3); j++ {
				var expiredAt sql.NullTime
				if rand.Intn(2) == 0 {
					expiredAt = sql.NullTime{Time: now.Add(time.Duration(1+rand.Intn(48)) * time.Hour), Valid: true}
				}

				_, err := tx.Exec(
					`insert into variants (post_id, name, stock, expired_at, created_at) values ($1, $2, $3, $4, $5)`,
					postID, portions[rand.Intn(len(portions))], 1+rand.Intn(10), expiredAt, now,
				)
				if err != nil {
					return fmt.Errorf("can't insert variant: %w", err)
				}
			}

			if (i+1)%10 == 0 {
				log.Printf("Inserted %d posts\n", i+1)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("can't seed database: %w", err)
	}

	log.Printf("Seeded %d users and %d posts\n", len(userIDs), cfg.SeedPosts)
	return nil
}
