package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserController handles user-related requests
type UserController struct {
	Users        store.UserStore
	EmailService *utils.EmailService
}

// NewUserController creates a new UserController with EmailService
func NewUserController(users store.UserStore, emailService *utils.EmailService) *UserController {
	return &UserController{
		Users:        users,
		EmailService: emailService,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	// Enumerate every missing field rather than stopping at the first.
	missing := ""
	for _, f := range []struct{ name, value string }{
		{"name", req.Name}, {"email", req.Email}, {"password", req.Password},
	} {
		if f.value == "" {
			if missing != "" {
				missing += ", "
			}
			missing += f.name + " is required"
		}
	}
	if missing != "" {
		utils.Fail(w, http.StatusBadRequest, missing)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	exists, err := uc.Users.EmailExists(ctx, req.Email)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if exists {
		utils.Fail(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Error(w, err)
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     "user",
	}

	verificationToken, err := utils.GenerateJWT("", user.Email, user.Role)
	if err != nil {
		utils.Error(w, err)
		return
	}
	user.VerificationToken = verificationToken

	if err := uc.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Fail(w, http.StatusBadRequest, "User already exists")
			return
		}
		utils.Error(w, err)
		return
	}

	if err := uc.EmailService.SendVerificationEmail(user.Email, verificationToken); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{
		"success": true,
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.Fail(w, http.StatusBadRequest, "Verification token missing")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := uc.Users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusBadRequest, "User not found or already verified")
			return
		}
		utils.Error(w, err)
		return
	}

	if err := uc.Users.MarkVerified(ctx, user.ID); err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{
		"success": true,
		"message": "Email verified successfully. You can now log in.",
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := uc.Users.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		utils.Error(w, err)
		return
	}

	if !user.IsVerified {
		utils.Fail(w, http.StatusUnauthorized, "Email not verified")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		utils.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r)
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Could not parse user from context")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		utils.Error(w, err)
		return
	}

	user.Password = ""
	user.VerificationToken = ""
	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "user": user})
}

func userIDFromPath(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, errors.New("not a user id")
	}
	return id, nil
}

// AdminListUsers lists all registered users (Admin only)
func (uc *UserController) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	users, err := uc.Users.List(ctx)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "users": users})
}

// AdminCreateUser adds a user directly, skipping email verification
// (Admin only)
func (uc *UserController) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.Fail(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Error(w, err)
		return
	}

	user := &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashedPassword),
		Role:       req.Role,
		IsVerified: true,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := uc.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Fail(w, http.StatusBadRequest, "User already exists")
			return
		}
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, utils.Envelope{"success": true, "user": user})
}

// AdminUpdateUser applies a partial update to a user's profile fields
// (Admin only). Absent fields are left untouched.
func (uc *UserController) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	var req struct {
		Name       *string `json:"name"`
		Email      *string `json:"email"`
		Role       *string `json:"role"`
		IsVerified *bool   `json:"isVerified"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := uc.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		utils.Error(w, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}

	if err := uc.Users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Fail(w, http.StatusBadRequest, "Email already in use")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "user": user})
}

// AdminDeleteUser removes a user account (Admin only)
func (uc *UserController) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := uc.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(w, http.StatusNotFound, "User not found")
			return
		}
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, utils.Envelope{"success": true, "message": "User removed"})
}
