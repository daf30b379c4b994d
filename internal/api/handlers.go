package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
	"github.com/npezzotti/thermoswitch/internal/types"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *ThermoswitchApp) writeJson(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Printf("failed to encode response: %s", err)
	}
}

func (s *ThermoswitchApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("failed to ping database: %s", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

// login verifies a username and password and mints a session token. An
// unknown username and a wrong password produce the same response, so
// a caller cannot probe which accounts exist.
func (s *ThermoswitchApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var missing []string
	if req.Username == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		errResp := NewMissingFieldsError(missing...)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountByUsername(req.Username)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewInvalidCredentialsError()
		} else {
			s.log.Printf("failed to get account %q: %s", req.Username, err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(user.PasswordHash, req.Password) {
		errResp := NewInvalidCredentialsError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tokenString, expiresAt, err := s.createSessionToken(user, s.tokenTTL)
	if err != nil {
		s.log.Printf("failed to create session token for user %d: %s", user.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.CreateToken(database.CreateTokenParams{
		UserId:    user.Id,
		TokenHash: hashToken(tokenString),
		ExpiresAt: expiresAt,
	}); err != nil {
		s.log.Printf("failed to store session token for user %d: %s", user.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.LoginResponse{Token: tokenString})
}

func (s *ThermoswitchApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var missing []string
	if req.Username == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		errResp := NewMissingFieldsError(missing...)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		s.log.Printf("failed to hash password: %s", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.CreateAccount(database.CreateAccountParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicateAccount) {
			errResp = NewDuplicateAccountError()
		} else {
			s.log.Printf("failed to create account %q: %s", req.Username, err)
			errResp = NewCreateAccountError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.AccountsCreated)

	s.writeJson(w, http.StatusCreated, types.CreateAccountResponse{
		Message: "account created successfully",
		UserId:  user.Id,
	})
}
