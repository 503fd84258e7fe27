package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthGameti/Travel-Tales/internal/media"
	"github.com/ArthGameti/Travel-Tales/internal/middleware"
)

var mediaStore *media.Store

// SetMediaStore registers the media store used by upload-handling endpoints.
func SetMediaStore(store *media.Store) {
	mediaStore = store
}

func getMediaStore() *media.Store {
	if mediaStore == nil {
		mediaStore = media.NewStoreFromEnv()
	}
	return mediaStore
}

// respondError writes the JSON error envelope every endpoint shares.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": true, "message": message})
}

// currentUserID reads the authenticated user id injected by the auth
// middleware, responding with an error when it is absent or malformed.
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get(middleware.UserIDContextKey)
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}

	userID, ok := value.(int)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user ID")
		return 0, false
	}
	return userID, true
}

func respondMediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidFileType):
		respondError(c, http.StatusBadRequest, "Only images (jpeg, jpg, png, gif) and videos (mp4, mov, avi, webm, mkv) are allowed")
	case errors.Is(err, media.ErrFileTooLarge):
		respondError(c, http.StatusBadRequest, "File is too large")
	case errors.Is(err, media.ErrTooManyFiles):
		respondError(c, http.StatusBadRequest, "Too many files uploaded")
	case errors.Is(err, media.ErrNotFound):
		respondError(c, http.StatusNotFound, "Image not found")
	default:
		log.Printf("Media error: %v", err)
		respondError(c, http.StatusInternalServerError, "Server error")
	}
}

// parseFlexibleDate accepts the date shapes clients actually send: RFC3339,
// plain YYYY-MM-DD, and unix epoch milliseconds. dateOnly reports whether the
// input carried no time component, so range bounds can be widened without
// touching explicit timestamps.
func parseFlexibleDate(raw string) (parsed time.Time, dateOnly bool, ok bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, false, true
		}
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, true, true
	}

	if millis, err := strconv.ParseInt(value, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis).UTC(), false, true
	}

	return time.Time{}, false, false
}

// endOfDay widens a date-only bound to the last instant of that day so the
// range filter stays inclusive.
func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}
