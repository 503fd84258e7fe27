package database

import (
	"fmt"
	"log"
)

// CreateTables creates all required tables in the database
func CreateTables() {
	createUsersTable()
	createTravelStoriesTable()
	createStoryImagesTable()
}

// createUsersTable creates the users table
func createUsersTable() {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_on TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create users table:", err)
	}

	fmt.Println("Users table created successfully")
}

func createTravelStoriesTable() {
	query := `
	CREATE TABLE IF NOT EXISTS travel_stories (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		story TEXT NOT NULL,
		visited_location VARCHAR(255) NOT NULL,
		is_favorite BOOLEAN DEFAULT FALSE,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		created_on TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		visited_date TIMESTAMP NOT NULL,
		video_url VARCHAR(500)
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create travel_stories table:", err)
	}

	ensureTravelStoriesSchema()
	fmt.Println("Travel_stories table created successfully")
}

func createStoryImagesTable() {
	query := `
	CREATE TABLE IF NOT EXISTS story_images (
		id SERIAL PRIMARY KEY,
		story_id INTEGER NOT NULL REFERENCES travel_stories(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		image_url VARCHAR(500) NOT NULL,
		UNIQUE(story_id, position)
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create story_images table:", err)
	}

	ensureStoryImagesSchema()
	fmt.Println("Story_images table created successfully")
}

func ensureTravelStoriesSchema() {
	ensureTrigramExtension()

	if _, err := DB.Exec(`ALTER TABLE travel_stories ADD COLUMN IF NOT EXISTS video_url VARCHAR(500)`); err != nil {
		log.Fatal("Failed to ensure travel_stories.video_url column:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS travel_stories_owner_favorite_created_idx ON travel_stories(owner_id, is_favorite DESC, created_on DESC)`); err != nil {
		log.Fatal("Failed to ensure travel_stories owner/sort index:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS travel_stories_owner_visited_date_idx ON travel_stories(owner_id, visited_date DESC)`); err != nil {
		log.Fatal("Failed to ensure travel_stories owner/visited_date index:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS travel_stories_search_trgm_idx ON travel_stories USING gin ((lower(COALESCE(title, '') || ' ' || COALESCE(story, '') || ' ' || COALESCE(visited_location, ''))) gin_trgm_ops)`); err != nil {
		log.Fatal("Failed to ensure travel_stories search trigram index:", err)
	}
}

// migrateLegacySingleImageColumn folds the retired single image_url column into
// story_images: each legacy value becomes a one-element image list at position 0.
// Runs once; the column is dropped after its rows are copied.
func migrateLegacySingleImageColumn() {
	var legacyColumnExists bool
	err := DB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'travel_stories' AND column_name = 'image_url'
		)
	`).Scan(&legacyColumnExists)
	if err != nil {
		log.Fatal("Failed to check for legacy image_url column:", err)
	}
	if !legacyColumnExists {
		return
	}

	_, err = DB.Exec(`
		INSERT INTO story_images (story_id, position, image_url)
		SELECT ts.id, 0, ts.image_url
		FROM travel_stories ts
		WHERE COALESCE(ts.image_url, '') <> ''
		  AND NOT EXISTS (SELECT 1 FROM story_images si WHERE si.story_id = ts.id)
	`)
	if err != nil {
		log.Fatal("Failed to migrate legacy image_url values:", err)
	}

	if _, err := DB.Exec(`ALTER TABLE travel_stories DROP COLUMN image_url`); err != nil {
		log.Fatal("Failed to drop legacy image_url column:", err)
	}

	fmt.Println("Legacy image_url column migrated into story_images")
}

func ensureStoryImagesSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS story_images_story_position_idx ON story_images(story_id, position)`); err != nil {
		log.Fatal("Failed to ensure story_images story/position index:", err)
	}

	// Needs both tables in place, so it runs here rather than in
	// ensureTravelStoriesSchema.
	migrateLegacySingleImageColumn()
}

func ensureTrigramExtension() {
	if _, err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`); err != nil {
		log.Fatal("Failed to ensure pg_trgm extension:", err)
	}
}
