package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/ArthGameti/Travel-Tales/internal/database"
	"github.com/ArthGameti/Travel-Tales/internal/media"
	"github.com/ArthGameti/Travel-Tales/internal/models"
	"github.com/ArthGameti/Travel-Tales/internal/monitoring"
)

// Every story listing aggregates the ordered image list in one pass.
const storySelectColumns = `
	ts.id, ts.title, ts.story, ts.visited_location, ts.is_favorite, ts.owner_id,
	ts.created_on, ts.visited_date, ts.video_url,
	COALESCE(ARRAY_AGG(si.image_url ORDER BY si.position) FILTER (WHERE si.image_url IS NOT NULL), '{}')
`

type storyScanner interface {
	Scan(dest ...any) error
}

func scanStory(scanner storyScanner, includeOwner bool) (models.TravelStory, error) {
	var story models.TravelStory
	var videoURL sql.NullString
	var imageURLs pq.StringArray
	var ownerName, ownerEmail sql.NullString

	dest := []any{
		&story.ID, &story.Title, &story.Story, &story.VisitedLocation, &story.IsFavorite,
		&story.OwnerID, &story.CreatedOn, &story.VisitedDate, &videoURL, &imageURLs,
	}
	if includeOwner {
		dest = append(dest, &ownerName, &ownerEmail)
	}

	if err := scanner.Scan(dest...); err != nil {
		return models.TravelStory{}, err
	}

	story.ImageURLs = []string(imageURLs)
	if story.ImageURLs == nil {
		story.ImageURLs = []string{}
	}
	if videoURL.Valid {
		story.VideoURL = &videoURL.String
	}
	if includeOwner {
		if ownerName.Valid {
			story.OwnerName = &ownerName.String
		}
		if ownerEmail.Valid {
			story.OwnerEmail = &ownerEmail.String
		}
	}
	return story, nil
}

func collectStories(rows *sql.Rows, includeOwner bool) ([]models.TravelStory, error) {
	stories := make([]models.TravelStory, 0)
	for rows.Next() {
		story, err := scanStory(rows, includeOwner)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

func fetchStoryByID(db *sql.DB, storyID int) (models.TravelStory, error) {
	query := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.id = $1
		GROUP BY ts.id
	`
	return scanStory(db.QueryRow(query, storyID), false)
}

func savedURLs(files []media.SavedFile) []string {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		urls = append(urls, file.URL)
	}
	return urls
}

// AddTravelStory creates a story owned by the caller. Files are written only
// after all input validation passes; a database failure afterwards rolls every
// written file back so no orphans survive.
func AddTravelStory(c *gin.Context) {
	startedAt := time.Now()
	var uploadedBytes int64
	uploadedFiles := 0
	uploadSuccess := false
	defer func() {
		monitoring.RecordUpload(uploadedFiles, uploadedBytes, time.Since(startedAt), uploadSuccess)
	}()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	storyText := strings.TrimSpace(c.PostForm("story"))
	visitedLocation := strings.TrimSpace(c.PostForm("visitedLocation"))
	visitedDateRaw := c.PostForm("visitedDate")
	images := form.File["images"]
	videos := form.File["video"]

	if title == "" || storyText == "" || visitedLocation == "" || visitedDateRaw == "" || len(images) == 0 {
		respondError(c, http.StatusBadRequest, "All fields, including image, are required")
		return
	}

	visitedDate, _, ok := parseFlexibleDate(visitedDateRaw)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid date format")
		return
	}

	if len(videos) > media.MaxVideosPerStory {
		respondError(c, http.StatusBadRequest, "Too many files uploaded")
		return
	}

	store := getMediaStore()
	savedImages, err := store.SaveImages(images)
	if err != nil {
		respondMediaError(c, err)
		return
	}

	written := append([]media.SavedFile(nil), savedImages...)
	var videoURL *string
	if len(videos) == 1 {
		savedVideo, videoErr := store.SaveVideo(videos[0])
		if videoErr != nil {
			store.Cleanup(written)
			respondMediaError(c, videoErr)
			return
		}
		written = append(written, savedVideo)
		videoURL = &savedVideo.URL
	}
	for _, file := range written {
		uploadedBytes += file.Size
	}
	uploadedFiles = len(written)

	db := database.DB
	tx, err := db.Begin()
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Transaction error")
		return
	}
	defer tx.Rollback()

	story := models.TravelStory{
		Title:           title,
		Story:           storyText,
		VisitedLocation: visitedLocation,
		OwnerID:         userID,
		VisitedDate:     visitedDate,
		ImageURLs:       savedURLs(savedImages),
		VideoURL:        videoURL,
	}

	insertStoryQuery := `
		INSERT INTO travel_stories (title, story, visited_location, owner_id, visited_date, video_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_favorite, created_on
	`
	err = tx.QueryRow(
		insertStoryQuery,
		story.Title,
		story.Story,
		story.VisitedLocation,
		story.OwnerID,
		story.VisitedDate,
		story.VideoURL,
	).Scan(&story.ID, &story.IsFavorite, &story.CreatedOn)
	if err != nil {
		log.Printf("Error inserting story: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Error saving story")
		return
	}

	for position, file := range savedImages {
		if _, err := tx.Exec(
			`INSERT INTO story_images (story_id, position, image_url) VALUES ($1, $2, $3)`,
			story.ID, position, file.URL,
		); err != nil {
			log.Printf("Error inserting story image: %v", err)
			store.Cleanup(written)
			respondError(c, http.StatusInternalServerError, "Error saving story")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Error committing transaction: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Commit error")
		return
	}

	uploadSuccess = true
	c.JSON(http.StatusCreated, gin.H{
		"error":   false,
		"story":   story,
		"message": "Added Successfully",
	})
}

// GetAllStories returns the caller's stories, favorites first, newest first
// within each group.
func GetAllStories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.owner_id = $1
		GROUP BY ts.id
		ORDER BY ts.is_favorite DESC, ts.created_on DESC
	`
	rows, err := database.DB.Query(query, userID)
	if err != nil {
		log.Printf("Error retrieving stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error retrieving stories")
		return
	}
	defer rows.Close()

	stories, err := collectStories(rows, false)
	if err != nil {
		log.Printf("Error scanning stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error retrieving stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "stories": stories})
}

// GetAllUsersStories returns every user's stories with owner details joined
// in, newest first.
func GetAllUsersStories(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	query := `
		SELECT ` + storySelectColumns + `, u.full_name, u.email
		FROM travel_stories ts
		JOIN users u ON u.id = ts.owner_id
		LEFT JOIN story_images si ON si.story_id = ts.id
		GROUP BY ts.id, u.full_name, u.email
		ORDER BY ts.created_on DESC
	`
	rows, err := database.DB.Query(query)
	if err != nil {
		log.Printf("Error retrieving all stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error retrieving stories")
		return
	}
	defer rows.Close()

	stories, err := collectStories(rows, true)
	if err != nil {
		log.Printf("Error scanning all stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error retrieving stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "stories": stories})
}

// EditTravelStory updates a story the caller owns. A new image set replaces
// the old one wholesale; omitting images keeps the existing set untouched.
func EditTravelStory(c *gin.Context) {
	startedAt := time.Now()
	var uploadedBytes int64
	uploadedFiles := 0
	uploadSuccess := false
	defer func() {
		monitoring.RecordUpload(uploadedFiles, uploadedBytes, time.Since(startedAt), uploadSuccess)
	}()

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	storyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid story ID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	storyText := strings.TrimSpace(c.PostForm("story"))
	visitedLocation := strings.TrimSpace(c.PostForm("visitedLocation"))
	visitedDateRaw := c.PostForm("visitedDate")
	images := form.File["images"]
	videos := form.File["video"]

	if title == "" || storyText == "" || visitedLocation == "" || visitedDateRaw == "" {
		respondError(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}

	visitedDate, _, ok := parseFlexibleDate(visitedDateRaw)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid date format")
		return
	}

	if len(videos) > media.MaxVideosPerStory {
		respondError(c, http.StatusBadRequest, "Too many files uploaded")
		return
	}

	db := database.DB

	// Existence and ownership are reported identically so a caller cannot
	// probe for other users' story ids.
	var existing models.TravelStory
	lookupQuery := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.id = $1 AND ts.owner_id = $2
		GROUP BY ts.id
	`
	existing, err = scanStory(db.QueryRow(lookupQuery, storyID, userID), false)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Story not found or you are not authorized to edit this story")
			return
		}
		log.Printf("Error loading story for edit: %v", err)
		respondError(c, http.StatusInternalServerError, "Error loading story")
		return
	}

	store := getMediaStore()
	var written []media.SavedFile

	imageURLs := existing.ImageURLs
	var savedImages []media.SavedFile
	if len(images) > 0 {
		savedImages, err = store.SaveImages(images)
		if err != nil {
			respondMediaError(c, err)
			return
		}
		written = append(written, savedImages...)
		imageURLs = savedURLs(savedImages)
	}

	videoURL := existing.VideoURL
	if len(videos) == 1 {
		savedVideo, videoErr := store.SaveVideo(videos[0])
		if videoErr != nil {
			store.Cleanup(written)
			respondMediaError(c, videoErr)
			return
		}
		written = append(written, savedVideo)
		videoURL = &savedVideo.URL
	}
	for _, file := range written {
		uploadedBytes += file.Size
	}
	uploadedFiles = len(written)

	tx, err := db.Begin()
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Transaction error")
		return
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE travel_stories
		SET title = $1, story = $2, visited_location = $3, visited_date = $4, video_url = $5
		WHERE id = $6 AND owner_id = $7
	`
	if _, err := tx.Exec(updateQuery, title, storyText, visitedLocation, visitedDate, videoURL, storyID, userID); err != nil {
		log.Printf("Error updating story: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Error updating story")
		return
	}

	if len(savedImages) > 0 {
		if _, err := tx.Exec(`DELETE FROM story_images WHERE story_id = $1`, storyID); err != nil {
			log.Printf("Error clearing story images: %v", err)
			store.Cleanup(written)
			respondError(c, http.StatusInternalServerError, "Error updating story")
			return
		}
		for position, file := range savedImages {
			if _, err := tx.Exec(
				`INSERT INTO story_images (story_id, position, image_url) VALUES ($1, $2, $3)`,
				storyID, position, file.URL,
			); err != nil {
				log.Printf("Error inserting story image: %v", err)
				store.Cleanup(written)
				respondError(c, http.StatusInternalServerError, "Error updating story")
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Error committing transaction: %v", err)
		store.Cleanup(written)
		respondError(c, http.StatusInternalServerError, "Commit error")
		return
	}

	// The replaced files are unreferenced now; their removal is best-effort.
	if len(savedImages) > 0 {
		store.CleanupURLs(existing.ImageURLs...)
	}
	if len(videos) == 1 && existing.VideoURL != nil {
		store.CleanupURLs(*existing.VideoURL)
	}

	story := models.TravelStory{
		ID:              storyID,
		Title:           title,
		Story:           storyText,
		VisitedLocation: visitedLocation,
		IsFavorite:      existing.IsFavorite,
		OwnerID:         userID,
		CreatedOn:       existing.CreatedOn,
		VisitedDate:     visitedDate,
		ImageURLs:       imageURLs,
		VideoURL:        videoURL,
	}

	uploadSuccess = true
	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"story":   story,
		"message": "Story updated successfully",
	})
}

// DeleteTravelStory removes a story the caller owns along with every media
// file it references. File deletion failures never block the record deletion.
func DeleteTravelStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	storyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid story ID")
		return
	}

	db := database.DB
	lookupQuery := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.id = $1 AND ts.owner_id = $2
		GROUP BY ts.id
	`
	existing, err := scanStory(db.QueryRow(lookupQuery, storyID, userID), false)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Story not found or you are not authorized to delete this story")
			return
		}
		log.Printf("Error loading story for delete: %v", err)
		respondError(c, http.StatusInternalServerError, "Error loading story")
		return
	}

	// Image rows cascade with the story record.
	if _, err := db.Exec(`DELETE FROM travel_stories WHERE id = $1 AND owner_id = $2`, storyID, userID); err != nil {
		log.Printf("Error deleting story: %v", err)
		respondError(c, http.StatusInternalServerError, "Error deleting story")
		return
	}

	store := getMediaStore()
	store.CleanupURLs(existing.ImageURLs...)
	if existing.VideoURL != nil {
		store.CleanupURLs(*existing.VideoURL)
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Travel story deleted successfully",
	})
}

// UpdateIsFavorite flips a story's favorite flag. Any authenticated caller
// may toggle any story; the flag is curation state, not owner-gated content.
func UpdateIsFavorite(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	storyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid story ID")
		return
	}

	var input struct {
		IsFavorite *bool `json:"isFavorite"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.IsFavorite == nil {
		respondError(c, http.StatusBadRequest, "isFavorite is required")
		return
	}

	db := database.DB
	result, err := db.Exec(`UPDATE travel_stories SET is_favorite = $1 WHERE id = $2`, *input.IsFavorite, storyID)
	if err != nil {
		log.Printf("Error updating favorite status: %v", err)
		respondError(c, http.StatusInternalServerError, "Error updating story")
		return
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		respondError(c, http.StatusNotFound, "Travel Story not found")
		return
	}

	story, err := fetchStoryByID(db, storyID)
	if err != nil {
		log.Printf("Error reloading story: %v", err)
		respondError(c, http.StatusInternalServerError, "Error retrieving story")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"story":   story,
		"message": "Favorite status updated successfully",
	})
}

// SearchTravelStories matches the caller's stories by case-insensitive
// substring over title, narrative, and visited location.
func SearchTravelStories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	search := strings.TrimSpace(c.Query("query"))
	if search == "" {
		respondError(c, http.StatusBadRequest, "Query is required")
		return
	}
	pattern := "%" + strings.ToLower(search) + "%"

	query := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.owner_id = $1
		  AND (
			lower(ts.title) LIKE $2 OR
			lower(ts.story) LIKE $2 OR
			lower(ts.visited_location) LIKE $2
		  )
		GROUP BY ts.id
		ORDER BY ts.is_favorite DESC
	`
	rows, err := database.DB.Query(query, userID, pattern)
	if err != nil {
		log.Printf("Error searching stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error searching stories")
		return
	}
	defer rows.Close()

	stories, err := collectStories(rows, false)
	if err != nil {
		log.Printf("Error scanning search results: %v", err)
		respondError(c, http.StatusInternalServerError, "Error searching stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "stories": stories})
}

// SearchAllStories matches every user's stories with owner details joined in.
func SearchAllStories(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	search := strings.TrimSpace(c.Query("query"))
	if search == "" {
		respondError(c, http.StatusBadRequest, "Query parameter is required")
		return
	}
	pattern := "%" + strings.ToLower(search) + "%"

	query := `
		SELECT ` + storySelectColumns + `, u.full_name, u.email
		FROM travel_stories ts
		JOIN users u ON u.id = ts.owner_id
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE lower(ts.title) LIKE $1 OR
		      lower(ts.story) LIKE $1 OR
		      lower(ts.visited_location) LIKE $1
		GROUP BY ts.id, u.full_name, u.email
		ORDER BY ts.is_favorite DESC
	`
	rows, err := database.DB.Query(query, pattern)
	if err != nil {
		log.Printf("Error searching all stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error searching stories")
		return
	}
	defer rows.Close()

	stories, err := collectStories(rows, true)
	if err != nil {
		log.Printf("Error scanning search results: %v", err)
		respondError(c, http.StatusInternalServerError, "Error searching stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "stories": stories})
}

// FilterStoriesByDate returns the caller's stories whose visited date falls
// inside the inclusive [startDate, endDate] range.
func FilterStoriesByDate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	startRaw := strings.TrimSpace(c.Query("startDate"))
	endRaw := strings.TrimSpace(c.Query("endDate"))
	if startRaw == "" || endRaw == "" {
		respondError(c, http.StatusBadRequest, "Both startDate and endDate are required")
		return
	}

	start, _, startOK := parseFlexibleDate(startRaw)
	end, endDateOnly, endOK := parseFlexibleDate(endRaw)
	if !startOK || !endOK {
		respondError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	if endDateOnly {
		end = endOfDay(end)
	}

	query := `
		SELECT ` + storySelectColumns + `
		FROM travel_stories ts
		LEFT JOIN story_images si ON si.story_id = ts.id
		WHERE ts.owner_id = $1
		  AND ts.visited_date >= $2
		  AND ts.visited_date <= $3
		GROUP BY ts.id
		ORDER BY ts.visited_date DESC
	`
	rows, err := database.DB.Query(query, userID, start, end)
	if err != nil {
		log.Printf("Error filtering stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error filtering stories")
		return
	}
	defer rows.Close()

	stories, err := collectStories(rows, false)
	if err != nil {
		log.Printf("Error scanning filtered stories: %v", err)
		respondError(c, http.StatusInternalServerError, "Error filtering stories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "stories": stories})
}
