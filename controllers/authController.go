package controllers

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/initializers"
	"github.com/b9aurav/marketplace-api-sub000/models"
	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	// Standard response messages
	msgInvalidInput          = "invalid input"
	msgUserAlreadyExists     = "user already exists"
	msgFailedToHashPassword  = "failed to hash password"
	msgInvalidCredentials    = "invalid email or password"
	msgAccountNotActivated   = "Account not activated, check your email to activate your account."
	msgAccountDeactivated    = "Account is deactivated. Contact support."
	msgFailedToGenerateToken = "failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgInvalidActivationLink = "Invalid or expired activation link"
	msgActivationSuccess     = "account has been activated successfully."
	msgResetLinkSent         = "Check your email for a password reset link."
	msgUserCreated           = "User created successfully. Check your email to activate your account."
	msgUserNotFound          = "user with this email does not exist"
	msgResetTokenError       = "There was an error trying to generate password reset link. Try again later."
	msgUnableToSaveToken     = "unable to save reset token."
	msgUnableToResetPassword = "unable to reset password"
)

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func generateJWT(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour * 24 * 30).Unix(),
	})

	jwtSecret := os.Getenv("JWT_SECRET")
	return token.SignedString([]byte(jwtSecret))
}

func checkUserExists(email string) (bool, error) {
	var existingUser models.User
	result := initializers.DB.Where("email = ?", email).Find(&existingUser)
	return result.RowsAffected > 0, result.Error
}

func findUserByEmail(email string) (models.User, error) {
	var user models.User
	result := initializers.DB.Where("email = ?", email).First(&user)
	return user, result.Error
}

// Send an account verification email
func sendAccountVerificationEmail(user models.User, activationToken string) error {
	emailData := utils.EmailData{
		Name:            user.Fullname,
		Message:         "Thank you for signing up! Click the button below to verify your account.",
		VerificationURL: os.Getenv("FRONTEND_URL") + "/auth/verify-email?token=" + url.QueryEscape(activationToken),
		LogoURL:         os.Getenv("STORE_LOGO_URL"),
	}

	templatePath := filepath.Join("templates", "verify_email.html")
	return utils.SendEmail(user.Email, "Account Verification", emailData, templatePath)
}

// Send a password reset email
func sendPasswordResetEmail(user models.User, resetToken string) error {
	emailData := utils.EmailData{
		Name:            user.Fullname,
		Message:         "You requested a password reset. Click the button below to reset your password.",
		VerificationURL: os.Getenv("FRONTEND_URL") + "/auth/reset-password?token=" + url.QueryEscape(resetToken),
		LogoURL:         os.Getenv("STORE_LOGO_URL"),
	}

	templatePath := filepath.Join("templates", "reset_password.html")
	return utils.SendEmail(user.Email, "Account Password Reset", emailData, templatePath)
}

// Signup handles user registration
func Signup(ctx *gin.Context) {
	var signUpData models.SignupData
	if err := ctx.ShouldBindJSON(&signUpData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	exists, err := checkUserExists(signUpData.Email)
	if err != nil {
		utils.Log.WithError(err).Error("Database error during user check")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}
	if exists {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
		return
	}

	// Hash the password
	hashedPassword, err := hashPassword(signUpData.Password)
	if err != nil {
		utils.Log.WithError(err).Error("Password hashing error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	// Generate and assign activation token
	activationToken, err := utils.GenerateCode(16)
	if err != nil {
		utils.Log.WithError(err).Error("Token generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	user := models.User{
		Fullname:               signUpData.Fullname,
		Email:                  signUpData.Email,
		Phone:                  signUpData.Phone,
		Password:               hashedPassword,
		Role:                   models.RoleUser,
		Active:                 true,
		AccountActivated:       false,
		AccountActivationToken: activationToken,
	}

	// Create the user in the database
	if result := initializers.DB.Create(&user); result.Error != nil {
		utils.Log.WithError(result.Error).Error("User creation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	// Send email to the user
	if err := sendAccountVerificationEmail(user, activationToken); err != nil {
		utils.Log.WithError(err).WithField("user_id", user.ID).Warn("Error sending verification email")
		// Continue despite email error, but log it
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{"message": msgUserCreated})
}

// Login handles user authentication
func Login(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	// Find the user
	user, err := findUserByEmail(loginData.Email)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	// Check if the password is correct
	if err := comparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	// Check if account is activated and not deactivated by an admin
	if !user.AccountActivated {
		sendErrorResponse(ctx, http.StatusBadRequest, msgAccountNotActivated)
		return
	}
	if !user.Active {
		sendErrorResponse(ctx, http.StatusForbidden, msgAccountDeactivated)
		return
	}

	// Generate a JWT token
	tokenString, err := generateJWT(user)
	if err != nil {
		utils.Log.WithError(err).Error("JWT generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	now := time.Now()
	if err := initializers.DB.Model(&user).Update("last_login_at", &now).Error; err != nil {
		utils.Log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"token": tokenString})
}

// ActivateAccount activates a user account using the activation token
func ActivateAccount(ctx *gin.Context) {
	activationToken := ctx.Param("activationToken")

	result := initializers.DB.Model(&models.User{}).
		Where("account_activation_token = ? AND account_activation_token <> ''", activationToken).
		Updates(map[string]any{
			"account_activated":        true,
			"account_activation_token": "",
		})

	if result.Error != nil {
		utils.Log.WithError(result.Error).Error("Account activation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidActivationLink)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgActivationSuccess})
}

// SendPasswordResetLink sends a password reset link to the user's email
func SendPasswordResetLink(ctx *gin.Context) {
	type ForgotPasswordBody struct {
		Email string `json:"email" binding:"required,email"`
	}

	var forgotPasswordData ForgotPasswordBody
	if err := ctx.ShouldBindJSON(&forgotPasswordData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	// Find the user
	user, err := findUserByEmail(forgotPasswordData.Email)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUserNotFound)
		return
	}

	// Generate password reset token
	passwordResetToken, err := utils.GenerateCode(16)
	if err != nil {
		utils.Log.WithError(err).Error("Reset token generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgResetTokenError)
		return
	}

	// Save the reset token to db
	if result := initializers.DB.Model(&models.User{}).
		Where("email = ?", forgotPasswordData.Email).
		Update("password_reset_token", passwordResetToken); result.Error != nil {

		utils.Log.WithError(result.Error).Error("Error saving reset token")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgUnableToSaveToken)
		return
	}

	// Send email to the user
	if err := sendPasswordResetEmail(user, passwordResetToken); err != nil {
		utils.Log.WithError(err).WithField("user_id", user.ID).Warn("Error sending password reset email")
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgResetLinkSent})
}

// ResetPassword resets a user's password using a reset token
func ResetPassword(ctx *gin.Context) {
	type ResetPasswordInfo struct {
		Password string `json:"password" binding:"required,min=8"`
	}

	var resetPasswordData ResetPasswordInfo
	if err := ctx.ShouldBindJSON(&resetPasswordData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	// Hash the new password
	hashedPassword, err := hashPassword(resetPasswordData.Password)
	if err != nil {
		utils.Log.WithError(err).Error("Password hashing error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	resetToken := ctx.Param("resetToken")
	result := initializers.DB.Model(&models.User{}).
		Where("password_reset_token = ? AND password_reset_token <> ''", resetToken).
		Updates(map[string]any{
			"password":             hashedPassword,
			"password_reset_token": "",
		})

	if result.Error != nil {
		utils.Log.WithError(result.Error).Error("Error resetting password")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgUnableToResetPassword)
		return
	}

	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidActivationLink)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Password reset successful"})
}
