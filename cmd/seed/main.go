package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/tulisku/tulisku/config"
	"github.com/tulisku/tulisku/pkg/helpers"
)

// Idempotently ensures one administrative identity and two sample posts.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword("adminpass")
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash, is_admin)
		VALUES ('admin', 'admin@example.com', $1, TRUE)
		ON CONFLICT (username) DO UPDATE SET updated_at = now()
		RETURNING id
	`, hash).Scan(&adminID)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	fmt.Printf("admin identity ensured: id=%s username=admin\n", adminID)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		log.Fatalf("failed to count posts: %v", err)
	}
	if count > 0 {
		fmt.Printf("posts already exist: %d\n", count)
		return
	}

	if _, err := db.Exec(`
		INSERT INTO posts (title, body, author_id)
		VALUES
			('Hello World', 'This is the first post.', $1),
			('Second Post', 'Another short post.', $1)
	`, adminID); err != nil {
		log.Fatalf("failed to seed posts: %v", err)
	}
	fmt.Println("created 2 demo posts")
}
