package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/models"
	"github.com/nirajmohabey/habit-tracker/utils"
)

// ForgotPassword issues a reset token when the address exists, but
// always reports success so the endpoint can't be used to enumerate
// accounts.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	response := gin.H{"message": "If an account exists for that email, a reset link has been sent"}

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		h.Logger.Error("reset_token_generation_failed", zap.Error(err))
		c.JSON(http.StatusOK, response)
		return
	}

	reset := models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: h.Now().UTC().Add(h.Cfg.ResetTokenTTL),
	}
	if err := h.DB.Create(&reset).Error; err != nil {
		h.Logger.Error("reset_token_store_failed", zap.Error(err))
		c.JSON(http.StatusOK, response)
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.Cfg.AppURL, token)
	if err := h.Mailer.SendPasswordReset(user.Email, user.Username, resetURL); err != nil {
		h.Logger.Error("reset_email_failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, response)
}

// VerifyResetToken lets the front-end check a token before showing the
// new-password form.
func (h *Handler) VerifyResetToken(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	if _, err := h.findLiveResetToken(input.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token is valid"})
}

// ResetPassword consumes the token, updates the hash, and kills every
// session the account had open.
func (h *Handler) ResetPassword(c *gin.Context) {
	var input struct {
		Token           string `json:"token" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and password are required"})
		return
	}

	if msg := validateCredentials(input.Password, input.ConfirmPassword); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	reset, err := h.findLiveResetToken(input.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		h.Logger.Error("password_hash_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", reset.UserID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
	if err != nil {
		h.Logger.Error("password_reset_failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	h.Logger.Info("password_reset", zap.String("user_id", reset.UserID.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handler) findLiveResetToken(token string) (models.PasswordResetToken, error) {
	var reset models.PasswordResetToken
	err := h.DB.Where("token = ? AND expires_at > ?", token, h.Now().UTC()).First(&reset).Error
	return reset, err
}
