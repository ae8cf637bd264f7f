package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"signalscan_backend/middleware"
	"signalscan_backend/models"
)

// AuthController issues API tokens for the operator account
type AuthController struct {
	credential *models.AdminCredential
	jwtSecret  string
}

// NewAuthController creates an auth controller
func NewAuthController(credential *models.AdminCredential, jwtSecret string) *AuthController {
	return &AuthController{credential: credential, jwtSecret: jwtSecret}
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the operator credential and returns a bearer token
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	if ac.credential == nil ||
		req.Username != ac.credential.Username ||
		!ac.credential.CheckPassword(req.Password) {
		middleware.RecordLoginAttempt(c.ClientIP(), false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	middleware.RecordLoginAttempt(c.ClientIP(), true)

	token, err := middleware.GenerateToken(req.Username, "admin", ac.jwtSecret)
	if err != nil {
		log.Printf("Token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(middleware.TokenTTL.Seconds()),
	})
}
