package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the registration and token endpoints.
func RegisterRoutes(router *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	router.POST("/register", handler.register)
	router.POST("/auth", handler.login)
}

type httpHandler struct {
	service *Service
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "a user with this email already exists"})
		case ErrInvalidEmail, ErrInvalidPassword:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		}
		return
	}

	c.JSON(http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

// login accepts JSON {email, password} or the OAuth2 password form
// (username, password).
func (h *httpHandler) login(c *gin.Context) {
	var creds Credentials
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		creds = Credentials{Email: c.PostForm("username"), Password: c.PostForm("password")}
	default:
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		creds = Credentials{Email: req.Email, Password: req.Password}
	}

	token, err := h.service.Login(c.Request.Context(), creds)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		}
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token.Token, TokenType: "Bearer"})
}
