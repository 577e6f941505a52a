package httpapi

import (
	"net/http"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/middleware"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type sessionData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	CSRFToken string `json:"csrfToken"`
}

func sessionPayload(result *secauth.AuthResult) sessionData {
	return sessionData{
		ID:        result.IdentityID,
		Name:      result.Name,
		Email:     result.Email,
		Role:      string(result.Role),
		Token:     result.Token,
		CSRFToken: result.CSRFToken,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSessionCookies(w, result)
	s.ok(w, "Login successful", sessionPayload(result))
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.engine.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSessionCookies(w, result)
	s.ok(w, "Login successful", sessionPayload(result))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.engine.Register(r.Context(), secauth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setSessionCookies(w, result)
	s.respond(w, http.StatusCreated, successBody{
		Success: true,
		Message: "Account created",
		Data:    sessionPayload(result),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.fail(w, r, secauth.ErrSessionInvalid)
		return
	}
	if err := s.engine.Logout(r.Context(), principal.IdentityID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.clearSessionCookies(w)
	s.ok(w, "Logged out", nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.fail(w, r, secauth.ErrSessionInvalid)
		return
	}
	s.ok(w, "", map[string]string{
		"id":   principal.IdentityID,
		"role": string(principal.Role),
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		s.fail(w, r, secauth.ErrSessionInvalid)
		return
	}
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.ChangePassword(r.Context(), principal.IdentityID, req.CurrentPassword, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	// Changing the password orphans every session, this one included.
	s.clearSessionCookies(w)
	s.ok(w, "Password changed, please login again", nil)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	rawToken, err := s.engine.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rawToken != "" && s.resetTokenSink != nil {
		s.resetTokenSink(req.Email, rawToken)
	}
	// Same response whether or not the account exists.
	s.ok(w, "If the account exists, a reset link has been sent", nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, "Password reset, please login", nil)
}
