package file

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/abduss/filestore/internal/auth"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form boundaries and part headers on top
// of the file itself.
const multipartOverhead = 1 << 20

// RegisterRoutes mounts file operations under the provided router group.
// Downloads are staged under downloadDir before being streamed back.
func RegisterRoutes(group *gin.RouterGroup, service *Service, downloadDir string) {
	handler := &httpHandler{service: service, downloadDir: downloadDir}
	group.GET("/files", handler.listFiles)
	group.POST("/files/upload", handler.uploadFile)
	group.GET("/files/download", handler.downloadFile)
}

type httpHandler struct {
	service     *Service
	downloadDir string
}

func currentOwner(c *gin.Context) (Owner, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return Owner{}, false
	}
	return Owner{ID: user.ID, Email: user.Email}, true
}

func (h *httpHandler) listFiles(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	list, err := h.service.List(c.Request.Context(), owner, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxFileSize()+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	requested := c.Query("path")
	if requested == "" {
		requested = c.PostForm("path")
	}

	body, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer body.Close()

	meta, err := h.service.Upload(c.Request.Context(), owner, UploadInput{
		Body:     body,
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Path:     requested,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePath):
			c.JSON(http.StatusConflict, gin.H{"error": "file with this path already exists"})
		case errors.Is(err, ErrInvalidPath):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	c.JSON(http.StatusCreated, meta)
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	locator := c.Query("path")
	if locator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	result, err := h.service.Download(c.Request.Context(), owner, locator, h.downloadDir)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "file is not downloadable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download file"})
		}
		return
	}

	defer result.Close()

	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, result.Content, map[string]string{
		"Content-Disposition": attachment(result.Filename),
	})
}

// attachment builds a Content-Disposition value. Non-ASCII names use the
// RFC 6266 filename* form.
func attachment(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	return `attachment; filename="` + quoteEscaper.Replace(name) + `"`
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
