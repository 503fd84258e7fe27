package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthGameti/Travel-Tales/internal/media"
	"github.com/ArthGameti/Travel-Tales/internal/monitoring"
)

// UploadImage stores a single image and returns its addressable URL.
func UploadImage(c *gin.Context) {
	startedAt := time.Now()
	var uploadedBytes int64
	uploadSuccess := false
	defer func() {
		monitoring.RecordUpload(1, uploadedBytes, time.Since(startedAt), uploadSuccess)
	}()

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No Image Uploaded")
		return
	}

	saved, err := getMediaStore().SaveSingleImage(header)
	if err != nil {
		respondMediaError(c, err)
		return
	}
	uploadedBytes = saved.Size
	uploadSuccess = true

	c.JSON(http.StatusCreated, gin.H{
		"error":    false,
		"imageUrl": saved.URL,
	})
}

// DeleteImage removes a previously uploaded image by its URL.
func DeleteImage(c *gin.Context) {
	imageURL := strings.TrimSpace(c.Query("imageUrl"))
	if imageURL == "" {
		respondError(c, http.StatusBadRequest, "ImageUrl Parameter is required")
		return
	}

	if err := getMediaStore().Remove(imageURL); err != nil {
		if errors.Is(err, media.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		log.Printf("Error deleting image %s: %v", imageURL, err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Image deleted successfully",
	})
}
