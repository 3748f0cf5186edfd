package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/service"
)

type createUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Role      string `json:"role"`
}

func (h *Handler) listUserNames(c *gin.Context) {
	names, err := h.users.ListNames(c.Request.Context(), mustCaller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names})
}

func (h *Handler) listMembers(c *gin.Context) {
	users, err := h.users.ListMembers(c.Request.Context(), mustCaller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), mustCaller(c), service.NewUserInput{
		Username:  req.Username,
		Password:  req.Password,
		Password2: req.Password2,
		Email:     req.Email,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.DeleteUser(c.Request.Context(), mustCaller(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
