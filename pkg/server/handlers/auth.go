package handlers

import (
	"net/http"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/stores"
)

// passwordPattern is the contract for new passwords: 6 to 32
// characters out of a restricted set.
var passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9@_.!\-]{6,32}$`)

type AuthHandler struct {
	users  *stores.UserStore
	tokens *auth.TokenService
}

func NewAuthHandler(users *stores.UserStore, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type tokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

func newTokenResponse(pair *auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), body.Username)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notAuthorized(""))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if !auth.VerifySecret(body.Password, user.PasswordSalt, user.PasswordHash) {
		writeError(w, notAuthorized(""))
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTokenResponse(pair))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	userID, err := h.tokens.VerifyRefresh(body.RefreshToken)
	if errors.Is(err, auth.ErrWrongTokenType) {
		writeError(w, notAuthorized("Invalid token type"))
		return
	}
	if err != nil {
		writeError(w, notAuthorized("Invalid refresh token"))
		return
	}

	pair, err := h.tokens.IssuePair(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTokenResponse(pair))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		PasswordOld string `json:"passwordOld"`
		PasswordNew string `json:"passwordNew"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if !passwordPattern.MatchString(body.PasswordNew) {
		writeError(w, validationError("Password must be 6 to 32 characters out of a-z, A-Z, 0-9 and @_.!-"))
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !auth.VerifySecret(body.PasswordOld, user.PasswordSalt, user.PasswordHash) {
		writeError(w, notAuthorized("Current password is incorrect"))
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		writeError(w, err)
		return
	}
	hash := auth.HashSecret(body.PasswordNew, salt)
	if err := h.users.UpdatePassword(r.Context(), userID, salt, hash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

// Logout exists for API symmetry. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, nil)
}
