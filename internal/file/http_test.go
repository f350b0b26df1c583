package file

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/abduss/filestore/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenIsEmail treats the bearer token as the user's email.
type tokenIsEmail struct{}

func (tokenIsEmail) ValidateAccessToken(token string) (auth.UserClaims, error) {
	return auth.UserClaims{Email: token}, nil
}

func lookupUser(ctx context.Context, email string) (auth.User, error) {
	switch email {
	case "alice":
		return auth.User{ID: 1, Email: "alice"}, nil
	case "bob":
		return auth.User{ID: 2, Email: "bob"}, nil
	}
	return auth.User{}, auth.ErrUserNotFound
}

func newFileRouter(t *testing.T, service *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/")
	group.Use(auth.AuthMiddleware(tokenIsEmail{}, lookupUser))
	RegisterRoutes(group, service, t.TempDir())
	return r
}

func uploadRequest(t *testing.T, user, query, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	target := "/files/upload"
	if query != "" {
		target += "?path=" + url.QueryEscape(query)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+user)
	return req
}

func authedGet(user, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+user)
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestUploadEndpoint(t *testing.T) {
	repo := newFakeRepo()
	r := newFileRouter(t, newTestService(repo, newFakeObjectStore(), Options{}))

	rr := serve(r, uploadRequest(t, "alice", "docs/", "report.pdf", []byte("%PDF")))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var got File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alice/docs/report.pdf", got.Path)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, int64(4), got.Size)
	assert.False(t, got.IsDownloadable)

	rr = serve(r, uploadRequest(t, "alice", "docs/", "report.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUploadEndpointStorageFailure(t *testing.T) {
	store := newFakeObjectStore()
	store.putErr = errBackend
	r := newFileRouter(t, newTestService(newFakeRepo(), store, Options{}))

	rr := serve(r, uploadRequest(t, "alice", "", "report.pdf", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestUploadEndpointStopsReadingOversizedBody(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStore()
	r := newFileRouter(t, newTestService(repo, store, Options{MaxFileSize: 10}))

	rr := serve(r, uploadRequest(t, "alice", "", "big.bin", bytes.Repeat([]byte("x"), 2*multipartOverhead)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, repo.createCalls)
	assert.Zero(t, store.putCalls)
}

func TestUploadEndpointRequiresFile(t *testing.T) {
	r := newFileRouter(t, newTestService(newFakeRepo(), newFakeObjectStore(), Options{}))

	req := httptest.NewRequest(http.MethodPost, "/files/upload", nil)
	req.Header.Set("Authorization", "Bearer alice")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestUploadEndpointRejectsUnsafePath(t *testing.T) {
	r := newFileRouter(t, newTestService(newFakeRepo(), newFakeObjectStore(), Options{Paths: PathPolicy{RejectUnsafe: true}}))

	rr := serve(r, uploadRequest(t, "alice", "../bob/", "x.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadEndpoint(t *testing.T) {
	repo := newFakeRepo()
	r := newFileRouter(t, newTestService(repo, newFakeObjectStore(), Options{}))

	rr := serve(r, uploadRequest(t, "alice", "archive/final.pdf", "report.pdf", []byte("payload")))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = serve(r, authedGet("bob", "/files/download?path="+url.QueryEscape("alice/archive/final.pdf")))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	allowDownload(t, repo, 1)

	rr = serve(r, authedGet("bob", "/files/download?path=1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "payload", rr.Body.String())
	assert.Equal(t, OctetStream, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="final.pdf"`)

	rr = serve(r, authedGet("alice", "/files/download?path=404"))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(r, authedGet("alice", "/files/download"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadEndpointNonASCIIName(t *testing.T) {
	repo := newFakeRepo()
	r := newFileRouter(t, newTestService(repo, newFakeObjectStore(), Options{}))

	rr := serve(r, uploadRequest(t, "alice", "", "отчёт.pdf", []byte("data")))
	require.Equal(t, http.StatusCreated, rr.Code)
	allowDownload(t, repo, 1)

	rr = serve(r, authedGet("alice", "/files/download?path=1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "data", rr.Body.String())
	assert.Equal(t, "attachment; filename*=utf-8''%D0%BE%D1%82%D1%87%D1%91%D1%82.pdf", rr.Header().Get("Content-Disposition"))
}

func TestAttachmentEscapesQuotes(t *testing.T) {
	assert.Equal(t, `attachment; filename="a\"b.txt"`, attachment(`a"b.txt`))
	assert.Equal(t, `attachment; filename="report.pdf"`, attachment("report.pdf"))
}

func TestListEndpoint(t *testing.T) {
	r := newFileRouter(t, newTestService(newFakeRepo(), newFakeObjectStore(), Options{}))

	rr := serve(r, authedGet("alice", "/files"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"account_id":1,"files":[]}`, rr.Body.String())

	require.Equal(t, http.StatusCreated, serve(r, uploadRequest(t, "alice", "", "a.txt", []byte("a"))).Code)

	rr = serve(r, authedGet("alice", "/files?offset=0&limit=10"))
	require.Equal(t, http.StatusOK, rr.Code)
	var list UserFiles
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Files, 1)
	assert.Equal(t, "alice/a.txt", list.Files[0].Path)

	rr = serve(r, authedGet("alice", "/files?limit=abc"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFileRoutesRequireAuthentication(t *testing.T) {
	r := newFileRouter(t, newTestService(newFakeRepo(), newFakeObjectStore(), Options{}))

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
