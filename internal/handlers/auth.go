package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArthGameti/Travel-Tales/internal/database"
	"github.com/ArthGameti/Travel-Tales/internal/models"
	"github.com/ArthGameti/Travel-Tales/internal/utils"
)

// Register handles account creation
func Register(c *gin.Context) {
	var input struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fullName := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if fullName == "" || email == "" || input.Password == "" {
		respondError(c, http.StatusBadRequest, "All fields are required")
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Error hashing password")
		return
	}

	db := database.DB
	var user models.User
	query := `INSERT INTO users (full_name, email, password) VALUES ($1, $2, $3) RETURNING id, created_on`
	err = db.QueryRow(query, fullName, email, hashedPassword).Scan(&user.ID, &user.CreatedOn)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			respondError(c, http.StatusBadRequest, "User already exists")
			return
		}
		log.Printf("Error inserting user: %v", err)
		respondError(c, http.StatusInternalServerError, "Error creating user")
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Error generating token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"error":       false,
		"user":        gin.H{"fullName": fullName, "email": email},
		"accessToken": token,
		"message":     "Registration Successful",
	})
}

// Login handles user login
func Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		respondError(c, http.StatusBadRequest, "Email and Password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(credentials.Email))
	if email == "" || credentials.Password == "" {
		respondError(c, http.StatusBadRequest, "Email and Password are required")
		return
	}

	db := database.DB
	var user models.User
	query := `SELECT id, full_name, email, password FROM users WHERE email=$1`
	err := db.QueryRow(query, email).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Password,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusBadRequest, "User not found")
			return
		}
		log.Printf("Error querying user: %v", err)
		respondError(c, http.StatusInternalServerError, "Error logging in")
		return
	}

	if !utils.CheckPasswordHash(credentials.Password, user.Password) {
		respondError(c, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Error generating token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":       false,
		"user":        gin.H{"fullName": user.FullName, "email": user.Email},
		"accessToken": token,
		"message":     "Login Successful",
	})
}

// GetUser returns the authenticated user's record, never the password hash.
func GetUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	db := database.DB
	var user models.User
	query := `SELECT id, full_name, email, created_on FROM users WHERE id=$1`
	err := db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.CreatedOn,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Error fetching user: %v", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"user":    user,
		"message": "User fetched successfully",
	})
}
