package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/sumails/sumails/internal/models"
)

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) AuthURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockIssuer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(code)
	tok, _ := args.Get(0).(*oauth2.Token)
	return tok, args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchEmails(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailData, error) {
	args := m.Called(accessToken, maxResults, query)
	emails, _ := args.Get(0).([]models.EmailData)
	return emails, args.Error(1)
}

func (m *mockProvider) FetchEmailsWithContent(ctx context.Context, accessToken string, maxResults int, query string) ([]models.EmailDataWithContent, error) {
	args := m.Called(accessToken, maxResults, query)
	emails, _ := args.Get(0).([]models.EmailDataWithContent)
	return emails, args.Error(1)
}

func (m *mockProvider) Profile(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(accessToken)
	return args.String(0), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) AccountsForPage(ctx context.Context, userID uuid.UUID) ([]models.ConnectedAccount, bool, error) {
	args := m.Called(userID)
	accounts, _ := args.Get(0).([]models.ConnectedAccount)
	return accounts, args.Bool(1), args.Error(2)
}

func (m *mockDirectory) FindByEmail(ctx context.Context, userID uuid.UUID, email string) (models.ConnectedAccount, error) {
	args := m.Called(userID, email)
	return args.Get(0).(models.ConnectedAccount), args.Error(1)
}

func (m *mockDirectory) Connect(ctx context.Context, account models.ConnectedAccount) (models.ConnectedAccount, error) {
	args := m.Called(account)
	return args.Get(0).(models.ConnectedAccount), args.Error(1)
}

type mockSettingsStore struct {
	mock.Mock
}

func (m *mockSettingsStore) Get(ctx context.Context, userID uuid.UUID) (*models.SettingsFormData, error) {
	args := m.Called(userID)
	form, _ := args.Get(0).(*models.SettingsFormData)
	return form, args.Error(1)
}

func (m *mockSettingsStore) Save(ctx context.Context, userID uuid.UUID, form models.SettingsFormData) error {
	return m.Called(userID, form).Error(0)
}

func (m *mockSettingsStore) Patch(ctx context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.SettingsFormData, error) {
	args := m.Called(userID, patch)
	form, _ := args.Get(0).(*models.SettingsFormData)
	return form, args.Error(1)
}
