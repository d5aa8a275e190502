package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/logstore"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server    *Server
	issuer    *mockIssuer
	provider  *mockProvider
	directory *mockDirectory
	settings  *mockSettingsStore
	dataDir   string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		issuer:    &mockIssuer{},
		provider:  &mockProvider{},
		directory: &mockDirectory{},
		settings:  &mockSettingsStore{},
		dataDir:   t.TempDir(),
	}
	env.server = NewServer(Config{}, Deps{
		Issuer:    env.issuer,
		Provider:  env.provider,
		Directory: env.directory,
		Logs:      logstore.New(env.dataDir, nil),
		Settings:  env.settings,
		Now:       func() time.Time { return testNow },
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func userHeaders(id uuid.UUID) map[string]string {
	return map[string]string{userHeader: id.String()}
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestHandleAuthURL(t *testing.T) {
	env := setupTestServer(t)
	env.issuer.On("AuthURL").Return("https://accounts.google.com/o/oauth2/auth?client_id=x", nil)

	w := env.do(t, "GET", "/api/auth/url", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?client_id=x", decode(t, w)["authUrl"])
}

func TestHandleAuthURLMissingConfiguration(t *testing.T) {
	env := setupTestServer(t)
	env.issuer.On("AuthURL").Return("", &apperr.ConfigurationError{Key: "google.client_id"})

	w := env.do(t, "GET", "/api/auth/url", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to generate auth URL", decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "google.client_id")
}

func TestHandleAuthCallback(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	expiry := testNow.Add(time.Hour)

	env.issuer.On("Exchange", "code-1").Return(&oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: expiry}, nil)
	env.provider.On("Profile", "at").Return("owner@gmail.com", nil)
	want := models.ConnectedAccount{UserID: userID, Email: "owner@gmail.com", AccessToken: "at", RefreshToken: "rt", ExpiresAt: expiry}
	saved := want
	saved.ID = uuid.New()
	env.directory.On("Connect", want).Return(saved, nil)

	w := env.do(t, "POST", "/api/auth/callback", map[string]string{"code": "code-1"}, userHeaders(userID))
	require.Equal(t, http.StatusCreated, w.Code)

	account := decode(t, w)["account"].(map[string]any)
	assert.Equal(t, "owner@gmail.com", account["email"])
	assert.Equal(t, false, account["expired"])
	assert.NotContains(t, w.Body.String(), `"at"`)
	env.directory.AssertExpectations(t)
}

func TestHandleAuthCallbackRejectedCode(t *testing.T) {
	env := setupTestServer(t)
	env.issuer.On("Exchange", "stale").Return(nil, &apperr.AuthError{Op: "exchange code", Err: errors.New("invalid_grant")})

	w := env.do(t, "POST", "/api/auth/callback", map[string]string{"code": "stale"}, userHeaders(uuid.New()))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.provider.AssertNotCalled(t, "Profile", mock.Anything)
}

func TestHandleAuthCallbackRequiresUser(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/auth/callback", map[string]string{"code": "c"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.issuer.AssertNotCalled(t, "Exchange", mock.Anything)
}

func TestFetchEmailsMissingToken(t *testing.T) {
	env := setupTestServer(t)

	for _, body := range []any{map[string]any{}, map[string]any{"accessToken": "", "maxResults": 5}} {
		w := env.do(t, "POST", "/api/emails", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Access token is required", decode(t, w)["error"])
	}
	env.provider.AssertNotCalled(t, "FetchEmails", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchEmailsMalformedBody(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/emails", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchEmails(t *testing.T) {
	env := setupTestServer(t)
	emails := make([]models.EmailData, 5)
	for i := range emails {
		emails[i] = models.EmailData{ID: uuid.NewString(), ThreadID: "t", Subject: "s", From: "f", Date: "d", LabelIDs: []string{"INBOX"}}
	}
	env.provider.On("FetchEmails", "tok", 5, "from:boss").Return(emails, nil)

	w := env.do(t, "POST", "/api/emails", map[string]any{"accessToken": "tok", "maxResults": 5, "query": "from:boss"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Emails []models.EmailData `json:"emails"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.LessOrEqual(t, len(resp.Emails), 5)
	assert.Equal(t, emails, resp.Emails)

	raw := decode(t, w)["emails"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "threadId", "snippet", "subject", "from", "date", "labelIds"} {
		assert.Contains(t, raw, key)
	}
}

func TestFetchEmailsDefaultsMaxResults(t *testing.T) {
	env := setupTestServer(t)
	env.provider.On("FetchEmails", "tok", 10, "").Return([]models.EmailData{}, nil)

	w := env.do(t, "POST", "/api/emails", map[string]any{"accessToken": "tok"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	env.provider.AssertExpectations(t)
}

func TestFetchEmailsPreviewFormat(t *testing.T) {
	env := setupTestServer(t)
	env.provider.On("FetchEmailsWithContent", "tok", 2, "").Return([]models.EmailDataWithContent{
		{EmailData: models.EmailData{ID: "m1", Subject: "Hello"}, Body: "line one\n\nline two"},
	}, nil)

	w := env.do(t, "POST", "/api/emails", map[string]any{"accessToken": "tok", "maxResults": 2, "format": "preview"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	first := decode(t, w)["emails"].([]any)[0].(map[string]any)
	assert.Equal(t, "line one line two", first["preview"])
	assert.NotContains(t, first, "body")
}

func TestFetchEmailsRejectsUnknownFormat(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/emails", map[string]any{"accessToken": "tok", "format": "raw"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchEmailsErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"expired token", &apperr.AuthError{Op: "list", Err: errors.New("401")}, http.StatusUnauthorized},
		{"rate limited", &apperr.RateLimitError{Op: "list", Err: errors.New("429")}, http.StatusTooManyRequests},
		{"provider down", &apperr.UpstreamError{Op: "list", Status: 503, Err: errors.New("503")}, http.StatusBadGateway},
		{"unknown", errors.New("/var/secret/path exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			env.provider.On("FetchEmails", "tok", 10, "").Return(nil, tt.err)

			w := env.do(t, "POST", "/api/emails", map[string]any{"accessToken": "tok"}, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "/var/secret")
		})
	}
}

func TestFetchEmailsByStoredAccount(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	acc := models.ConnectedAccount{ID: uuid.New(), UserID: userID, Email: "a@gmail.com", AccessToken: "stored", ExpiresAt: testNow.Add(time.Minute)}
	env.directory.On("FindByEmail", userID, "a@gmail.com").Return(acc, nil)
	env.provider.On("FetchEmails", "stored", 3, "").Return([]models.EmailData{}, nil)

	w := env.do(t, "POST", "/api/emails", map[string]any{"account": "a@gmail.com", "maxResults": 3}, userHeaders(userID))
	assert.Equal(t, http.StatusOK, w.Code)
	env.provider.AssertExpectations(t)
}

func TestFetchEmailsByExpiredAccount(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	acc := models.ConnectedAccount{ID: uuid.New(), UserID: userID, Email: "a@gmail.com", AccessToken: "stored", ExpiresAt: testNow.Add(-time.Minute)}
	env.directory.On("FindByEmail", userID, "a@gmail.com").Return(acc, nil)

	w := env.do(t, "POST", "/api/emails", map[string]any{"account": "a@gmail.com"}, userHeaders(userID))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.provider.AssertNotCalled(t, "FetchEmails", mock.Anything, mock.Anything, mock.Anything)
}

func writeProcessingLog(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, logstore.ProcessingLog+".json"), []byte(content), 0o644))
}

func TestProcessingLogSortedByRecency(t *testing.T) {
	env := setupTestServer(t)
	writeProcessingLog(t, env.dataDir, `[
		{"account":"a","last_processed_at":"2024-01-01"},
		{"account":"b","last_processed_at":"2024-03-15"},
		{"account":"c","last_processed_at":"2024-02-10"}
	]`)

	w := env.do(t, "GET", "/api/processing-log", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(3), resp["total"])

	var order []string
	for _, entry := range resp["logs"].([]any) {
		order = append(order, entry.(map[string]any)["last_processed_at"].(string))
	}
	assert.Equal(t, []string{"2024-03-15", "2024-02-10", "2024-01-01"}, order)
	assert.Equal(t, "b", resp["logs"].([]any)[0].(map[string]any)["account"])
}

func TestProcessingLogStableOnTies(t *testing.T) {
	env := setupTestServer(t)
	writeProcessingLog(t, env.dataDir, `[
		{"account":"first","last_processed_at":"2024-01-01T00:00:00Z"},
		{"account":"newest","last_processed_at":"2024-05-01T00:00:00Z"},
		{"account":"second","last_processed_at":"2024-01-01T00:00:00Z"}
	]`)

	w := env.do(t, "GET", "/api/processing-log", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var accounts []string
	for _, entry := range decode(t, w)["logs"].([]any) {
		accounts = append(accounts, entry.(map[string]any)["account"].(string))
	}
	assert.Equal(t, []string{"newest", "first", "second"}, accounts)
}

func TestProcessingLogPassesRecordsThrough(t *testing.T) {
	env := setupTestServer(t)
	writeProcessingLog(t, env.dataDir, `[
		{"account":"x"},
		{"account":"y","last_processed_at":null},
		{"account":"z","last_processed_at":"2024-02-10"}
	]`)

	w := env.do(t, "GET", "/api/processing-log", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Logs []json.RawMessage `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 3)
	assert.JSONEq(t, `{"account":"z","last_processed_at":"2024-02-10"}`, string(resp.Logs[0]))
	assert.JSONEq(t, `{"account":"x"}`, string(resp.Logs[1]))
	assert.JSONEq(t, `{"account":"y","last_processed_at":null}`, string(resp.Logs[2]))
}

func TestProcessingLogMissingFile(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "GET", "/api/processing-log", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, []any{}, resp["logs"])
	assert.Equal(t, float64(0), resp["total"])
}

func TestProcessingLogReadFailure(t *testing.T) {
	env := setupTestServer(t)
	// A directory where the file should be makes the read fail with an I/O error.
	require.NoError(t, os.Mkdir(filepath.Join(env.dataDir, logstore.ProcessingLog+".json"), 0o755))

	w := env.do(t, "GET", "/api/processing-log", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to read processing log", decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), env.dataDir)
}

func TestListAccounts(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	env.directory.On("AccountsForPage", userID).Return([]models.ConnectedAccount{
		{ID: uuid.New(), UserID: userID, Email: "fresh@gmail.com", AccessToken: "secret", ExpiresAt: testNow.Add(time.Hour)},
		{ID: uuid.New(), UserID: userID, Email: "stale@gmail.com", AccessToken: "secret", ExpiresAt: testNow.Add(-time.Hour)},
	}, false, nil)

	w := env.do(t, "GET", "/api/accounts", nil, userHeaders(userID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	resp := decode(t, w)
	assert.Equal(t, false, resp["degraded"])
	accounts := resp["accounts"].([]any)
	require.Len(t, accounts, 2)
	assert.Equal(t, false, accounts[0].(map[string]any)["expired"])
	assert.Equal(t, true, accounts[1].(map[string]any)["expired"])
}

func TestListAccountsDegraded(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	env.directory.On("AccountsForPage", userID).Return([]models.ConnectedAccount{}, true, nil)

	w := env.do(t, "GET", "/api/accounts", nil, userHeaders(userID))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["degraded"])
	assert.Equal(t, []any{}, resp["accounts"])
}

func TestListAccountsFailClosed(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	env.directory.On("AccountsForPage", userID).Return(nil, false, &apperr.FetchError{UserID: userID.String(), Err: errors.New("down")})

	w := env.do(t, "GET", "/api/accounts", nil, userHeaders(userID))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListAccountsRejectsBadUser(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "GET", "/api/accounts", nil, map[string]string{userHeader: "not-a-uuid"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func validSettingsBody() map[string]any {
	return map[string]any{
		"notifications":   map[string]any{"productUpdates": true, "marketingEmails": false},
		"summaryChannels": map[string]any{"email": true, "whatsapp": true},
		"preferredTime":   "07:45",
		"timezone":        "Europe/Paris",
		"language":        "concise",
		"fullName":        nil,
		"phoneNumber":     nil,
		"whatsappNumber":  "+33 6 00 00 00 00",
	}
}

func TestPutSettings(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	env.settings.On("Save", userID, mock.MatchedBy(func(f models.SettingsFormData) bool {
		return f.PreferredTime == "07:45" && f.Timezone == "Europe/Paris" && f.SummaryChannels.WhatsApp && f.FullName == nil
	})).Return(nil)

	w := env.do(t, "PUT", "/api/settings", validSettingsBody(), userHeaders(userID))
	require.Equal(t, http.StatusOK, w.Code)
	env.settings.AssertExpectations(t)
}

func TestPutSettingsInvalid(t *testing.T) {
	env := setupTestServer(t)
	body := validSettingsBody()
	body["preferredTime"] = "9:30"

	w := env.do(t, "PUT", "/api/settings", body, userHeaders(uuid.New()))
	require.Equal(t, http.StatusBadRequest, w.Code)

	fields := decode(t, w)["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "preferredTime", fields[0].(map[string]any)["field"])
	env.settings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPatchSettings(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	stored := &models.SettingsFormData{PreferredTime: "08:00", Timezone: "UTC", Language: "friendly"}
	env.settings.On("Patch", userID, mock.MatchedBy(func(p models.SettingsPatch) bool {
		return p.Notifications != nil && p.Notifications.ProductUpdates && p.Language == nil && !p.FullName.Set
	})).Return(stored, nil)

	w := env.do(t, "PATCH", "/api/settings", map[string]any{
		"notifications": map[string]any{"productUpdates": true, "marketingEmails": false},
	}, userHeaders(userID))
	require.Equal(t, http.StatusOK, w.Code)
	env.settings.AssertExpectations(t)
}

func TestPatchSettingsInvalid(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "PATCH", "/api/settings", map[string]any{"language": "bogus"}, userHeaders(uuid.New()))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "PATCH", "/api/settings", map[string]any{}, userHeaders(uuid.New()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.settings.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything)
}

func TestGetSettingsNotFound(t *testing.T) {
	env := setupTestServer(t)
	userID := uuid.New()
	env.settings.On("Get", userID).Return(nil, &apperr.NotFoundError{Resource: "settings", Key: userID.String()})

	w := env.do(t, "GET", "/api/settings", nil, userHeaders(userID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
