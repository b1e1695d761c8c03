package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"imgbed/internal/http/middleware"
	"imgbed/internal/model"
	"imgbed/internal/service"
	serviceMocks "imgbed/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	name    string
	content string
}

func multipartBody(t *testing.T, files []formFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.CreateFormFile("files[]", f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func sessionCookie(resp *http.Response) string {
	sc := resp.Header.Get("Set-Cookie")
	if sc == "" {
		return ""
	}
	return strings.Split(sc, ";")[0]
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestProcessUpload(t *testing.T) {
	t.Run("renders link list for accepted files", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", ProcessUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.MatchedBy(func(files []service.LocalFile) bool {
			return len(files) == 1 && files[0].Filename == "cat.png" && files[0].Size == int64(len("png-bytes"))
		}), mock.Anything).Return([]model.UploadResult{
			{URL: "https://img.example.com/2024/03/05/cat.png", DisplayName: "cat.png"},
		}, nil).Once()

		body, ct := multipartBody(t, []formFile{{"cat.png", "png-bytes"}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		html := bodyString(t, resp)
		assert.Contains(t, html, "https://img.example.com/2024/03/05/cat.png")
		mockSvc.AssertExpectations(t)
	})

	t.Run("splits the image_links textarea into URLs", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", ProcessUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.Anything,
			[]string{"https://x/a.jpg", "https://x/b.jpg"}).
			Return([]model.UploadResult{
				{URL: "https://img.example.com/2024/03/05/a.jpg", DisplayName: "a.jpg"},
				{URL: "https://img.example.com/2024/03/05/b.jpg", DisplayName: "b.jpg"},
			}, nil).Once()

		body, ct := multipartBody(t, nil, map[string]string{
			"image_links": "https://x/a.jpg\r\nhttps://x/b.jpg",
		})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("redirects to the form when nothing succeeded", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", ProcessUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.Anything, mock.Anything).
			Return([]model.UploadResult{}, nil).Once()

		body, ct := multipartBody(t, []formFile{{"document.pdf", "pdf"}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("service error surfaces as opaque server error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", ProcessUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("bucket down")).Once()

		body, ct := multipartBody(t, []formFile{{"cat.png", "x"}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAnonUpload(t *testing.T) {
	t.Run("plain-text failure when nothing succeeded", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", AnonUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.Anything, mock.Anything).
			Return([]model.UploadResult{}, nil).Once()

		body, ct := multipartBody(t, []formFile{{"notes.txt", "hi"}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Upload failed, please try again.", bodyString(t, resp))
	})

	t.Run("never passes URLs to the orchestrator", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockUploadService)
		app := fiber.New()
		app.Post("/upload", AnonUpload(mockSvc))

		mockSvc.On("Process", mock.Anything, mock.Anything, mock.MatchedBy(func(urls []string) bool {
			return urls == nil
		})).Return([]model.UploadResult{
			{URL: "https://img.example.com/2024/03/05/cat.png", DisplayName: "cat.png"},
		}, nil).Once()

		body, ct := multipartBody(t, []formFile{{"cat.png", "x"}}, map[string]string{
			"image_links": "https://x/a.jpg",
		})
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRegisterUser(t *testing.T) {
	newApp := func(mockAuth *serviceMocks.MockAuthService) *fiber.App {
		app := fiber.New()
		app.Post("/register", RegisterUser(mockAuth))
		return app
	}

	postForm := func(app *fiber.App, username, password string) *http.Response {
		form := "username=" + username + "&password=" + password
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success redirects to login without a session", func(t *testing.T) {
		mockAuth := new(serviceMocks.MockAuthService)
		mockAuth.On("Register", mock.Anything, "alice", "pw1").
			Return(&model.User{ID: 1, Username: "alice"}, nil).Once()

		resp := postForm(newApp(mockAuth), "alice", "pw1")

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Empty(t, resp.Header.Get("Set-Cookie"))
	})

	t.Run("duplicate username is a conflict, not a server error", func(t *testing.T) {
		mockAuth := new(serviceMocks.MockAuthService)
		mockAuth.On("Register", mock.Anything, "alice", "pw1").
			Return(nil, service.ErrUsernameTaken).Once()

		resp := postForm(newApp(mockAuth), "alice", "pw1")

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		mockAuth := new(serviceMocks.MockAuthService)
		mockAuth.On("Register", mock.Anything, "alice", "").
			Return(nil, service.ErrCredentialsRequired).Once()

		resp := postForm(newApp(mockAuth), "alice", "")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginLogoutFlow(t *testing.T) {
	store := session.New()
	mockAuth := new(serviceMocks.MockAuthService)
	mockUpload := new(serviceMocks.MockUploadService)

	app := fiber.New()
	app.Post("/login", LoginUser(mockAuth, store))
	app.Get("/logout", Logout(store))
	app.Get("/", middleware.RequireSession(store), IndexPage())
	app.Post("/upload", middleware.RequireSession(store), ProcessUpload(mockUpload))

	login := func(username, password string) *http.Response {
		form := "username=" + username + "&password=" + password
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("anonymous access to protected routes redirects and calls nothing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))

		req = httptest.NewRequest(http.MethodPost, "/upload", nil)
		resp, _ = app.Test(req)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		mockUpload.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad credentials get one generic message and no session", func(t *testing.T) {
		mockAuth.On("Authenticate", mock.Anything, "alice", "wrong").
			Return(nil, service.ErrInvalidCredentials).Once()

		resp := login("alice", "wrong")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Login failed: check your username and password.", bodyString(t, resp))
		assert.Empty(t, sessionCookie(resp))
	})

	t.Run("login establishes a session, logout destroys it", func(t *testing.T) {
		mockAuth.On("Authenticate", mock.Anything, "alice", "pw1").
			Return(&model.User{ID: 1, Username: "alice"}, nil).Once()

		resp := login("alice", "pw1")
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		cookie := sessionCookie(resp)
		require.NotEmpty(t, cookie)

		// Protected page now reachable
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Cookie", cookie)
		resp, _ = app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// Logout
		req = httptest.NewRequest(http.MethodGet, "/logout", nil)
		req.Header.Set("Cookie", cookie)
		resp, _ = app.Test(req)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))

		// Old cookie no longer grants access
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Cookie", cookie)
		resp, _ = app.Test(req)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("logout while anonymous is a no-op redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})
}

func TestUploadFormRedirect(t *testing.T) {
	app := fiber.New()
	app.Get("/upload", UploadForm())

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
