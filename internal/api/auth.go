package api

import (
	"context"  // Request-scoped cancellation
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/middleware" // Caller identity
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`    // Username must be provided
	Email    string `json:"email" binding:"required,email"` // Email must be valid
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"` // Either identifier works
	Password        string `json:"password" binding:"required"`        // Password must be provided
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	UserID          uint   `json:"userId"`   // User ID
	Username        string `json:"username"` // Username
	Email           string `json:"email"`    // Email
	Role            string `json:"role"`     // Role
	utils.TokenPair        // Access and refresh tokens
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

// isValidUsername checks the username is 3-50 letters, digits or underscores
func isValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// isValidPassword checks if the password length is between 8 and 64 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 64 // Return true if length is valid
}

// invalidCredentials covers both unknown users and wrong passwords
var invalidCredentials = &domain.Error{Kind: domain.KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid username/email or password"}

// RegisterHandler creates a User-role account and signs the caller in
func RegisterHandler(db *gorm.DB, tokens *utils.TokenIssuer) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		// Validate username and password
		if !isValidUsername(req.Username) {
			fail(c, domain.ValidationError("INVALID_USERNAME", "Username must be 3-50 letters, digits or underscores"))
			return
		}
		if !isValidPassword(req.Password) {
			fail(c, domain.ValidationError("INVALID_PASSWORD", "Password must be 8-64 characters"))
			return
		}
		taken, err := users.FindTaken(c.Request.Context(), req.Username, req.Email)
		if err != nil {
			fail(c, err)
			return
		}
		if taken != nil {
			if taken.Username == req.Username {
				fail(c, domain.Conflict("USERNAME_TAKEN", "A user with this username already exists"))
			} else {
				fail(c, domain.Conflict("EMAIL_TAKEN", "A user with this email already exists"))
			}
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			fail(c, err)
			return
		}
		user := domain.User{Username: req.Username, Email: req.Email, PasswordHash: string(hash), Role: domain.RoleUser}
		if err := users.Add(c.Request.Context(), &user); err != nil {
			fail(c, err)
			return
		}
		resp, err := authResponse(tokens, &user)
		if err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
		utils.Success(c, http.StatusCreated, "User registered successfully", resp)
	}
}

// LoginHandler authenticates a user by username or email and returns tokens
func LoginHandler(db *gorm.DB, tokens *utils.TokenIssuer) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		user, err := users.FindByLogin(c.Request.Context(), req.UsernameOrEmail)
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, invalidCredentials)
			return
		} else if err != nil {
			fail(c, err)
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			logrus.WithField("login", req.UsernameOrEmail).Warn("Failed login attempt")
			fail(c, invalidCredentials)
			return
		}
		resp, err := authResponse(tokens, user)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Login successful", resp)
	}
}

// RefreshHandler exchanges a valid refresh token for a new token pair
func RefreshHandler(db *gorm.DB, tokens *utils.TokenIssuer) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		claims, err := tokens.ParseRefresh(req.RefreshToken)
		if err != nil {
			fail(c, err)
			return
		}
		user, err := users.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, domain.TokenInvalid(err)) // The user was removed after the token was issued
			return
		} else if err != nil {
			fail(c, err)
			return
		}
		resp, err := authResponse(tokens, user)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Token refreshed", resp)
	}
}

// LogoutHandler acknowledges a logout; tokens are stateless and expire on their own
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logrus.WithField("user_id", middleware.CurrentUserID(c)).Info("User logged out")
		utils.Success(c, http.StatusOK, "Logged out successfully", true)
	}
}

// ProfileHandler returns the caller's profile
func ProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := loadProfile(c.Request.Context(), db, middleware.CurrentUserID(c))
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Profile retrieved successfully", profile)
	}
}

func authResponse(tokens *utils.TokenIssuer, user *domain.User) (*AuthResponse, error) {
	pair, err := tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{UserID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role, TokenPair: *pair}, nil
}

// loadProfile loads a user together with account and transaction counts
func loadProfile(ctx context.Context, db *gorm.DB, userID uint) (*UserProfile, error) {
	user, err := repository.NewUsers(db).Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := repository.OwnedBy(&userID)
	accounts, err := repository.NewAccounts(db).Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	transactions, err := repository.NewTransactions(db).Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Role:             user.Role,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
		AccountCount:     accounts,
		TransactionCount: transactions,
	}, nil
}
