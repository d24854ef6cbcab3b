package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/model"
)

type usersPage struct {
	PageData
	Users []model.User
}

// UsersPage handles GET /usuarios (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := s.Service.Store.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &usersPage{
		PageData: s.page(r, "Usuários"),
		Users:    users,
	})
}

// UserCreateSubmit handles POST /usuarios (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || (role != model.RoleAdmin && role != model.RoleOperator) {
		redirectFlash(w, r, "/usuarios", "erro", "Informe o usuário e o perfil.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		redirectFlash(w, r, "/usuarios", "erro", err.Error())
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := s.Service.Store.CreateUser(r.Context(), username, hash, role); err != nil {
		redirectFlash(w, r, "/usuarios", "erro", errorMessage(err))
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	redirectFlash(w, r, "/usuarios", "sucesso", "Usuário '"+username+"' criado.")
}

// UserResetPasswordSubmit handles POST /usuarios/{id}/senha (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		redirectFlash(w, r, "/usuarios", "erro", "Usuário inválido.")
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		redirectFlash(w, r, "/usuarios", "erro", err.Error())
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := s.Service.Store.UpdateUserPassword(r.Context(), id, hash); err != nil {
		slog.Error("failed to reset password", "error", err)
		redirectFlash(w, r, "/usuarios", "erro", errorMessage(err))
		return
	}

	slog.Info("user password reset", "user", claims.Username, "target_user_id", id)
	redirectFlash(w, r, "/usuarios", "sucesso", "Senha redefinida.")
}

// UserDeleteSubmit handles POST /usuarios/{id}/excluir (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id == claims.UserID {
		redirectFlash(w, r, "/usuarios", "erro", "Não é possível excluir este usuário.")
		return
	}

	if err := s.Service.Store.DeleteUser(r.Context(), id); err != nil {
		redirectFlash(w, r, "/usuarios", "erro", errorMessage(err))
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user_id", id)
	redirectFlash(w, r, "/usuarios", "sucesso", "Usuário excluído.")
}
