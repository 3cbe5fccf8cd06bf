package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/session"
)

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ResetPasswordRequestDTO struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type MeResponseDTO struct {
	Authenticated bool   `json:"authenticated"`
	User          any    `json:"user,omitempty"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
}

// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s := h.device(r)
	resp := MeResponseDTO{AffiliateCode: s.Session.AffiliateCode(r.Context())}
	if u, ok := s.Session.User(r.Context()); ok {
		resp.Authenticated = true
		resp.User = u
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !decode(w, r, &req) {
		return
	}
	u, err := h.device(r).Session.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if !decode(w, r, &req) {
		return
	}
	u, err := h.device(r).Session.Register(r.Context(), session.Registration{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.device(r).Session.Logout(r.Context())
	respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.device(r).Session.ForgotPassword(r.Context(), req.Email); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequestDTO
	if !decode(w, r, &req) {
		return
	}
	if err := h.device(r).Session.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.device(r).Session.VerifyEmail(r.Context(), req.Token); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// PUT /api/v1/auth/affiliate records the referral code from a landing link.
func (h *Handler) SetAffiliate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.device(r).Session.SetAffiliateCode(r.Context(), req.Code); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
