package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/service"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Email2    string `json:"email2" binding:"required"`
	Invite    string `json:"invite"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegistrationInput{
		Username:  req.Username,
		Password:  req.Password,
		Password2: req.Password2,
		Email:     req.Email,
		Email2:    req.Email2,
		Invite:    req.Invite,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.sessions.Issue(user.ID, string(user.Role))
	if err != nil {
		writeError(c, err)
		return
	}
	h.setSessionCookie(c, token, int(h.sessions.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userToResponse(*user),
	})
}

// logout only clears the cookie; issued tokens stay valid until they expire.
func (h *Handler) logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	v, _ := c.Get(userKey)
	user, ok := v.(*domain.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}
