package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
	"github.com/nirajmohabey/habit-tracker/utils"
)

type signupInput struct {
	Username        string `json:"username" binding:"required,min=3,max=80"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login authenticates by username+password and opens a session. The
// error message never distinguishes unknown users from bad passwords.
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", strings.TrimSpace(input.Username)).First(&user).Error; err != nil {
		h.Logger.Warn("login_failed", zap.String("username", input.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		h.Logger.Warn("login_failed", zap.String("username", input.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err := h.createSession(c, user.ID); err != nil {
		h.Logger.Error("session_create_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.Logger.Info("user_logged_in", zap.String("user_id", user.ID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": userPayload(user)})
}

// Signup either creates the account directly, or parks the credentials
// behind an emailed one-time code when verification is enabled.
func (h *Handler) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if msg := validateCredentials(input.Password, input.ConfirmPassword); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var existing models.User
	if err := h.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	}
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		h.Logger.Error("password_hash_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if h.Cfg.EmailVerification {
		h.beginVerifiedSignup(c, username, email, passwordHash)
		return
	}

	user, err := h.createAccount(username, email, passwordHash)
	if err != nil {
		h.Logger.Error("signup_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := h.createSession(c, user.ID); err != nil {
		h.Logger.Error("session_create_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.Logger.Info("user_signed_up", zap.String("user_id", user.ID.String()))
	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "user": userPayload(user)})
}

// beginVerifiedSignup issues a fresh 6-digit code, replacing any pending
// signup for the same address.
func (h *Handler) beginVerifiedSignup(c *gin.Context, username, email, passwordHash string) {
	code, err := utils.RandomCode(6)
	if err != nil {
		h.Logger.Error("code_generation_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	otc := models.OneTimeCode{
		Email:        email,
		Code:         code,
		Username:     username,
		PasswordHash: passwordHash,
		ExpiresAt:    h.Now().UTC().Add(h.Cfg.OneTimeCodeTTL),
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.OneTimeCode{}).Error; err != nil {
			return err
		}
		return tx.Create(&otc).Error
	})
	if err != nil {
		h.Logger.Error("otc_store_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := h.Mailer.SendVerificationCode(email, username, code); err != nil {
		h.Logger.Error("verification_email_failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":               "Verification code sent",
		"verification_required": true,
	})
}

// VerifySignup completes the code-gated signup. A wrong or expired code
// deletes the pending record; the user starts over.
func (h *Handler) VerifySignup(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and 6-digit code are required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var otc models.OneTimeCode
	if err := h.DB.Where("email = ?", email).First(&otc).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}

	if h.Now().UTC().After(otc.ExpiresAt) || otc.Code != input.Code {
		h.DB.Delete(&otc)
		h.Logger.Warn("signup_verification_failed", zap.String("email", email))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}

	// Someone may have claimed the name or address while the code was
	// pending; this signup can no longer succeed.
	var existing models.User
	if err := h.DB.Where("username = ?", otc.Username).First(&existing).Error; err == nil {
		h.DB.Delete(&otc)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	}
	if err := h.DB.Where("email = ?", otc.Email).First(&existing).Error; err == nil {
		h.DB.Delete(&otc)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	var user models.User
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		user = models.User{
			Username:     otc.Username,
			Email:        otc.Email,
			PasswordHash: otc.PasswordHash,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		habits := models.DefaultHabits(user.ID)
		if err := tx.Create(&habits).Error; err != nil {
			return err
		}
		return tx.Delete(&otc).Error
	})
	if err != nil {
		h.Logger.Error("verified_signup_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := h.createSession(c, user.ID); err != nil {
		h.Logger.Error("session_create_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	h.Logger.Info("user_signed_up", zap.String("user_id", user.ID.String()))
	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "user": userPayload(user)})
}

// Logout deletes the server-side session and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token := middleware.SessionToken(c)
	if err := h.DB.Where("token = ? AND user_id = ?", token, user.ID).Delete(&models.Session{}).Error; err != nil {
		h.Logger.Warn("logout_session_delete_failed", zap.Error(err))
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CheckAuth reports whether the request carries a live session. It is
// a public route so an anonymous check yields a clean JSON answer, not
// the auth middleware's error.
func (h *Handler) CheckAuth(c *gin.Context) {
	user, ok := middleware.ResolveSession(h.DB, h.Logger, c, h.Now)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": userPayload(user)})
}

// createAccount writes the user and the default habit set in one
// transaction.
func (h *Handler) createAccount(username, email, passwordHash string) (models.User, error) {
	var user models.User
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		user = models.User{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		habits := models.DefaultHabits(user.ID)
		return tx.Create(&habits).Error
	})
	return user, err
}

func validateCredentials(password, confirm string) string {
	if password != confirm {
		return "Passwords do not match"
	}
	if len(password) < 6 {
		return "Password must be at least 6 characters long"
	}
	return ""
}
