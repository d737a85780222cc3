package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type fakeScreener struct {
	jd   string
	docs []models.Document
	err  error
}

func (f *fakeScreener) Screen(_ context.Context, jd string, docs []models.Document) ([]models.ResultRecord, error) {
	f.jd = jd
	f.docs = docs
	if f.err != nil {
		return nil, f.err
	}

	results := make([]models.ResultRecord, len(docs))
	for i, doc := range docs {
		// Files must still be on disk while screening runs
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, err
		}
		raw := float64(len(data)) / 100
		results[i] = models.ResultRecord{
			Filename: doc.Filename,
			RawScore: raw,
			Score:    models.ScorePercent(raw),
			Label:    services.DefaultFitLabeler().Label(raw),
		}
	}
	return results, nil
}

type fakeHistory struct {
	runs map[uuid.UUID]*models.ScreeningRun
	err  error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{runs: map[uuid.UUID]*models.ScreeningRun{}}
}

func (f *fakeHistory) Create(_ context.Context, run *models.ScreeningRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs[run.ID] = run
	return nil
}

func (f *fakeHistory) FindByID(_ context.Context, id uuid.UUID) (*models.ScreeningRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, repositories.ErrScreeningNotFound
	}
	return run, nil
}

type upload struct {
	name    string
	content string
}

func screenRequest(t *testing.T, jd string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if jd != "" {
		require.NoError(t, mw.WriteField("job_description", jd))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("resumes", f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestApp(handler *ScreenHandler, history repositories.ScreeningRepository) *fiber.App {
	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/screen", handler.HandleScreen)
	if history != nil {
		api.Get("/screenings/:id", NewResultHandler(history).HandleGetScreening)
	}
	return app
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func defaultConfig() ScreenHandlerConfig {
	return ScreenHandlerConfig{MaxFileSize: 1 << 20, MaxFiles: 3}
}

func TestHandleScreen_RanksAndStores(t *testing.T) {
	uploadDir := t.TempDir()
	screener := &fakeScreener{}
	history := newFakeHistory()
	handler := NewScreenHandler(screener, services.NewStorageService(uploadDir), history, defaultConfig(), nil)
	app := newTestApp(handler, history)

	resp, err := app.Test(screenRequest(t, "  Data analyst  ",
		upload{"short.txt", "0123456789"},
		upload{"my long cv.txt", "0123456789012345678901234567890123456789012345678901234567890123456789012345"},
	), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode[models.ScreenResponse](t, resp)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "my_long_cv.txt", body.Results[0].Filename)
	assert.Equal(t, 76, body.Results[0].Score)
	assert.Equal(t, models.LabelStrong, body.Results[0].Label)
	assert.Equal(t, "short.txt", body.Results[1].Filename)
	assert.Equal(t, models.LabelWeak, body.Results[1].Label)

	assert.Equal(t, "Data analyst", screener.jd)

	// Temporary files are removed once the run is over
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	for _, doc := range screener.docs {
		assert.NoFileExists(t, doc.Path)
		assert.Equal(t, uploadDir, filepath.Dir(filepath.Dir(doc.Path)))
	}

	id, err := uuid.Parse(body.ID)
	require.NoError(t, err)
	require.Contains(t, history.runs, id)
	assert.Equal(t, "Data analyst", history.runs[id].JobDescription)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/screenings/"+body.ID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stored := decode[models.ScreeningResponse](t, resp)
	assert.Equal(t, body.ID, stored.ID)
	assert.Len(t, stored.Results, 2)
}

func TestHandleScreen_ValidationErrors(t *testing.T) {
	handler := NewScreenHandler(&fakeScreener{}, services.NewStorageService(t.TempDir()), nil, defaultConfig(), nil)
	app := newTestApp(handler, nil)

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"missing jd", screenRequest(t, "", upload{"a.txt", "x"}), MsgMissingInput},
		{"blank jd", screenRequest(t, "   ", upload{"a.txt", "x"}), MsgMissingInput},
		{"missing files", screenRequest(t, "Data analyst"), MsgMissingInput},
		{"too many files", screenRequest(t, "Data analyst",
			upload{"a.txt", "x"}, upload{"b.txt", "x"}, upload{"c.txt", "x"}, upload{"d.txt", "x"}), "Too many files"},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewBufferString("{}")), "multipart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(tt.req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := decode[map[string]string](t, resp)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestHandleScreen_FileTooLarge(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxFileSize = 4
	handler := NewScreenHandler(&fakeScreener{}, services.NewStorageService(t.TempDir()), nil, cfg, nil)

	resp, err := newTestApp(handler, nil).Test(screenRequest(t, "Data analyst", upload{"big.txt", "0123456789"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleScreen_TruncatesJobDescription(t *testing.T) {
	screener := &fakeScreener{}
	cfg := defaultConfig()
	cfg.MaxJobDescriptionChars = 4
	handler := NewScreenHandler(screener, services.NewStorageService(t.TempDir()), nil, cfg, nil)

	resp, err := newTestApp(handler, nil).Test(screenRequest(t, "Data analyst", upload{"a.txt", "x"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Data", screener.jd)
}

func TestHandleScreen_ScreenerFailure(t *testing.T) {
	history := newFakeHistory()
	handler := NewScreenHandler(&fakeScreener{err: errors.New("embedding provider down")},
		services.NewStorageService(t.TempDir()), history, defaultConfig(), nil)

	resp, err := newTestApp(handler, history).Test(screenRequest(t, "Data analyst", upload{"a.txt", "x"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	assert.NotContains(t, body["error"], "embedding provider down")
	assert.Empty(t, history.runs)
}

func TestHandleScreen_HistoryFailureDoesNotFailRequest(t *testing.T) {
	history := newFakeHistory()
	history.err = errors.New("db down")
	handler := NewScreenHandler(&fakeScreener{}, services.NewStorageService(t.TempDir()), history, defaultConfig(), nil)

	resp, err := newTestApp(handler, nil).Test(screenRequest(t, "Data analyst", upload{"a.txt", "x"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleGetScreening_Errors(t *testing.T) {
	history := newFakeHistory()
	app := fiber.New()
	app.Get("/api/v1/screenings/:id", NewResultHandler(history).HandleGetScreening)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/screenings/not-a-uuid", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/screenings/"+uuid.NewString(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	history.err = errors.New("db down")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/screenings/"+uuid.NewString(), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
