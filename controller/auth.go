package controller

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"chatter-service/config"
	"chatter-service/database"
	"chatter-service/media"
	"chatter-service/middleware"
	"chatter-service/model"
	"chatter-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthSignupInput struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type AuthLoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type AuthUpdateProfileInput struct {
	// ProfilePic is an image data URL.
	ProfilePic string `json:"profile_pic"`
}

type AuthForgotPasswordInput struct {
	Email string `json:"email"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password"`
}

type AuthOtpVerifyInput struct {
	Token string `json:"token"`
}

type AuthOtpValidateInput struct {
	Token string `json:"token"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func AuthSignup(c *fiber.Ctx) error {
	input := new(AuthSignupInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	if input.Email == "" || input.FullName == "" || input.Password == "" {
		return failure(c, fiber.StatusBadRequest, "All fields are required")
	}
	if len(input.Password) < minPasswordLength {
		return failure(c, fiber.StatusBadRequest,
			fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid email format")
	}

	// If existed email is found, return error
	if count := database.Postgres.
		Where(&model.User{Email: input.Email}).
		Limit(1).
		Find(new(model.User)).
		RowsAffected; count > 0 {
		return failure(c, fiber.StatusBadRequest, "Email is already registered")
	}

	// Generate hash from password.
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c)
	}

	// Generate OTP secret
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Default("OTP_ISSUER", "chatter"),
		AccountName: input.Email,
		SecretSize:  15,
	})
	if err != nil {
		return internalError(c)
	}

	user := &model.User{
		Email:     input.Email,
		FullName:  input.FullName,
		Password:  string(hash),
		Role:      "user",
		OtpSecret: key.Secret(),
	}
	if err := database.Postgres.Create(user).Error; err != nil {
		log.Printf("signup %s: %v", input.Email, err)
		return internalError(c)
	}

	if err := database.AssignRole(model.FormatID(user.ID), user.Role); err != nil {
		log.Printf("assign role to user %d: %v", user.ID, err)
	}

	tokens, err := startSession(c, user)
	if err != nil {
		log.Printf("signup session for user %d: %v", user.ID, err)
		return internalError(c)
	}

	return success(c, fiber.StatusCreated, sessionData(user, tokens))
}

func AuthLogin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	user := new(model.User)
	err := database.Postgres.
		Where(&model.User{Email: strings.ToLower(strings.TrimSpace(input.Email))}).
		First(user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("login lookup: %v", err)
		}
		return failure(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	tokens, err := startSession(c, user)
	if err != nil {
		log.Printf("login session for user %d: %v", user.ID, err)
		return internalError(c)
	}

	return success(c, fiber.StatusOK, sessionData(user, tokens))
}

func AuthLogout(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.AuthCookie); token != "" {
		if claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY"); err == nil {
			if err := database.DeleteRefreshToken(c.UserContext(), claims.Id); err != nil {
				log.Printf("logout user %s: %v", claims.Id, err)
			}
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Secure:   config.Bool("COOKIE_SECURE", true),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Logged out successfully",
		"data":    nil,
	})
}

func AuthCheck(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized - User not found")
	}

	return success(c, fiber.StatusOK, userProfile(user))
}

func AuthUpdateProfile(c *fiber.Ctx) error {
	input := new(AuthUpdateProfileInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	if input.ProfilePic == "" {
		return failure(c, fiber.StatusBadRequest, "Profile pic is required")
	}

	user, err := currentUser(c)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized - User not found")
	}

	upload, err := media.FromDataURL(input.ProfilePic)
	if err != nil {
		return mediaFailure(c, err)
	}
	if err := media.Check(upload, mediaMaxBytes()); err != nil {
		return mediaFailure(c, err)
	}

	url, err := Media.Upload(c.UserContext(), media.FolderProfiles, upload)
	if err != nil {
		return mediaFailure(c, err)
	}

	user.ProfilePic = url
	if err := database.Postgres.Model(user).Update("profile_pic", url).Error; err != nil {
		log.Printf("update profile of user %d: %v", user.ID, err)
		return internalError(c)
	}

	return success(c, fiber.StatusOK, userProfile(user))
}

// AuthForgotPassword answers the same way whether or not the address is known.
func AuthForgotPassword(c *fiber.Ctx) error {
	input := new(AuthForgotPasswordInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid email format")
	}

	log.Printf("password reset requested")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "If that email is registered, a reset link has been sent",
		"data":    nil,
	})
}

func AuthTokenRenew(c *fiber.Ctx) error {
	renew := &AuthRenewTokenInput{}
	if err := c.BodyParser(renew); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, "JWT_REFRESH_KEY")
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	userToken, err := database.RefreshToken(c.UserContext(), claims.Id)
	if err != nil {
		log.Printf("renew token of user %s: %v", claims.Id, err)
		return failure(c, fiber.StatusUnauthorized, "Unauthorized, your refresh token is unknown")
	}

	if userToken != renew.RefreshToken {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized, your refresh token was already used")
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(claims.Id, claims.Otp)
	if err != nil {
		return internalError(c)
	}

	// Save refresh token to Redis
	if err := database.SaveRefreshToken(c.UserContext(), claims.Id, tokens.Refresh); err != nil {
		return internalError(c)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     claims.Otp,
	})
}

func AuthOtpSecret(c *fiber.Ctx) error {
	secret := &AuthOtpSecretInput{}
	if err := c.BodyParser(secret); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	user, err := currentUser(c)
	if err != nil {
		return internalError(c)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(secret.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid password")
	}

	issuer := config.Default("OTP_ISSUER", "chatter")
	return success(c, fiber.StatusOK, fiber.Map{
		"secret": user.OtpSecret,
		"url": fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
			issuer,
			user.Email,
			issuer,
			user.OtpSecret,
		),
	})
}

func AuthOtpVerify(c *fiber.Ctx) error {
	verify := &AuthOtpVerifyInput{}
	if err := c.BodyParser(verify); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	user, err := currentUser(c)
	if err != nil {
		return internalError(c)
	}

	if user.OtpEnabled {
		return failure(c, fiber.StatusConflict, "Verification has already been performed earlier")
	}

	if !totp.Validate(verify.Token, user.OtpSecret) {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	if err := database.Postgres.Model(user).Update("otp_enabled", true).Error; err != nil {
		return internalError(c)
	}

	return success(c, fiber.StatusOK, nil)
}

// AuthOtpValidate trades a pre-2FA token and a TOTP code for a full session.
func AuthOtpValidate(c *fiber.Ctx) error {
	validate := &AuthOtpValidateInput{}
	if err := c.BodyParser(validate); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	user, err := currentUser(c)
	if err != nil {
		return internalError(c)
	}

	if !user.OtpEnabled {
		return failure(c, fiber.StatusBadRequest, "2FA has been disabled")
	}

	if !totp.Validate(validate.Token, user.OtpSecret) {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	// Validated sessions carry otp=false.
	validated := *user
	validated.OtpEnabled = false
	tokens, err := startSession(c, &validated)
	if err != nil {
		return internalError(c)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

func AuthOtpDisable(c *fiber.Ctx) error {
	disable := &AuthOtpDisableInput{}
	if err := c.BodyParser(disable); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	user, err := currentUser(c)
	if err != nil {
		return internalError(c)
	}

	if !user.OtpEnabled {
		return failure(c, fiber.StatusBadRequest, "2FA not enabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(disable.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid password")
	}

	if !totp.Validate(disable.Token, user.OtpSecret) {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	if err := database.Postgres.Model(user).Update("otp_enabled", false).Error; err != nil {
		return internalError(c)
	}

	return success(c, fiber.StatusOK, nil)
}

func currentUser(c *fiber.Ctx) (*model.User, error) {
	id, err := model.ParseID(middleware.UserID(c))
	if err != nil {
		return nil, err
	}

	user := new(model.User)
	if err := database.Postgres.First(user, id).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// startSession issues tokens for user, stores the refresh token and sets the auth cookie.
func startSession(c *fiber.Ctx, user *model.User) (*utils.Tokens, error) {
	id := model.FormatID(user.ID)

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(id, user.OtpEnabled)
	if err != nil {
		return nil, err
	}

	if err := database.SaveRefreshToken(c.UserContext(), id, tokens.Refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    tokens.Access,
		Expires:  time.Now().Add(utils.AccessTTL()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Secure:   config.Bool("COOKIE_SECURE", true),
	})

	return tokens, nil
}

func sessionData(user *model.User, tokens *utils.Tokens) fiber.Map {
	data := userProfile(user)
	data["access"] = tokens.Access
	data["refresh"] = tokens.Refresh
	data["2fa"] = user.OtpEnabled
	return data
}
