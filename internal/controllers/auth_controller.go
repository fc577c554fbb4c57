package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fleetsmart/internal/middleware"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

type AuthController struct {
	managers *repos.ManagerRepo
	drivers  *repos.DriverRepo
}

func NewAuthController(managers *repos.ManagerRepo, drivers *repos.DriverRepo) *AuthController {
	return &AuthController{managers: managers, drivers: drivers}
}

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=manager driver"`
}

// Register creates a manager or driver account. A driver account also gets a
// driver profile under the same uid, so assignments can reference it.
func (a *AuthController) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration input: " + err.Error()})
		return
	}

	if _, exists, err := a.managers.ByEmail(input.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	} else if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	account := models.Manager{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     input.Role,
	}
	uid, err := a.managers.Create(&account)
	if err != nil {
		logrus.WithError(err).Error("Failed to create account.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if input.Role == "driver" {
		driver := models.Driver{
			FullName: input.Name,
			Email:    input.Email,
			State:    models.DriverAvailable,
		}
		if err := a.drivers.CreateWithID(uid, &driver); err != nil {
			logrus.WithError(err).WithField("uid", uid).Error("Failed to create driver profile for account.")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver profile"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"uid": uid, "role": input.Role})
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT carrying {uid, role}.
func (a *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login input: " + err.Error()})
		return
	}

	account, found, err := a.managers.ByEmail(input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		logrus.WithError(err).Error("Login lookup failed.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if !found || bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(account.ID, account.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"uid":   account.ID,
		"role":  account.Role,
		"name":  account.Name,
	})
}
