package handlers

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthGameti/Travel-Tales/internal/database"
	"github.com/ArthGameti/Travel-Tales/internal/monitoring"
)

var monitoringService *monitoring.Service

// SetMonitoringService registers runtime monitoring service for handlers.
func SetMonitoringService(service *monitoring.Service) {
	monitoringService = service
}

func getMonitoringService() *monitoring.Service {
	if monitoringService == nil {
		monitoringService = monitoring.NewService(time.Now())
	}
	return monitoringService
}

func checkMonitoringToken(c *gin.Context) bool {
	expected := strings.TrimSpace(os.Getenv("MONITORING_API_KEY"))
	if expected == "" {
		respondError(c, http.StatusServiceUnavailable, "Monitoring API is disabled")
		return false
	}

	provided := strings.TrimSpace(c.GetHeader("X-Monitoring-Key"))
	if provided == "" || provided != expected {
		respondError(c, http.StatusUnauthorized, "Invalid monitoring key")
		return false
	}
	return true
}

func MonitorStatus(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().StatusText()})
}

func MonitorStorage(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().StorageText()})
}

func MonitorConnections(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().ConnectionsText()})
}

func MonitorUsers(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().UsersText()})
}

func MonitorRuntime(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().RuntimeText()})
}

func MonitorAll(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": getMonitoringService().AllText()})
}

func MonitorSnapshot(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}
	c.JSON(http.StatusOK, getMonitoringService().Snapshot())
}

// MonitorUsersList pages through accounts with their story counts.
func MonitorUsersList(c *gin.Context) {
	if !checkMonitoringToken(c) {
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 8)
	if limit > 50 {
		limit = 50
	}
	offset := (page - 1) * limit

	var totalUsers int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&totalUsers); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load users count")
		return
	}

	rows, err := database.DB.Query(`
		SELECT
			u.id,
			u.full_name,
			u.email,
			u.created_on,
			COUNT(ts.id) AS story_count
		FROM users u
		LEFT JOIN travel_stories ts ON ts.owner_id = u.id
		GROUP BY u.id, u.full_name, u.email, u.created_on
		ORDER BY u.created_on DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load users list")
		return
	}
	defer rows.Close()

	type monitorUserItem struct {
		ID         int       `json:"id"`
		FullName   string    `json:"full_name"`
		Email      string    `json:"email"`
		StoryCount int64     `json:"story_count"`
		CreatedOn  time.Time `json:"created_on"`
	}

	users := make([]monitorUserItem, 0)
	for rows.Next() {
		var item monitorUserItem
		if scanErr := rows.Scan(&item.ID, &item.FullName, &item.Email, &item.CreatedOn, &item.StoryCount); scanErr != nil {
			respondError(c, http.StatusInternalServerError, "Failed to scan users list")
			return
		}
		users = append(users, item)
	}

	totalPages := 0
	if totalUsers > 0 {
		totalPages = int(math.Ceil(float64(totalUsers) / float64(limit)))
	}

	c.JSON(http.StatusOK, gin.H{
		"page":        page,
		"limit":       limit,
		"total_users": totalUsers,
		"total_pages": totalPages,
		"users":       users,
	})
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
