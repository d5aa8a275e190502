package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sumails/sumails/internal/apperr"
	"github.com/sumails/sumails/internal/models"
	"github.com/sumails/sumails/services/dashboard-api/internal/db"
)

// Store persists validated preference bundles.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.SettingsFormData, error)
	Save(ctx context.Context, userID uuid.UUID, form models.SettingsFormData) error
	Patch(ctx context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.SettingsFormData, error)
}

// Repository is the Postgres-backed Store on the user_settings table.
type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const selectSettings = `SELECT product_updates, marketing_emails, summary_email, summary_whatsapp,
		preferred_time, timezone, language, full_name, phone_number, whatsapp_number
	FROM user_settings WHERE user_id = $1`

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.SettingsFormData, error) {
	form, err := scanSettings(r.db.QueryRow(ctx, selectSettings, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "settings", Key: userID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return form, nil
}

func (r *Repository) Save(ctx context.Context, userID uuid.UUID, form models.SettingsFormData) error {
	query := `
		INSERT INTO user_settings (user_id, product_updates, marketing_emails, summary_email, summary_whatsapp,
			preferred_time, timezone, language, full_name, phone_number, whatsapp_number, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			product_updates = EXCLUDED.product_updates,
			marketing_emails = EXCLUDED.marketing_emails,
			summary_email = EXCLUDED.summary_email,
			summary_whatsapp = EXCLUDED.summary_whatsapp,
			preferred_time = EXCLUDED.preferred_time,
			timezone = EXCLUDED.timezone,
			language = EXCLUDED.language,
			full_name = EXCLUDED.full_name,
			phone_number = EXCLUDED.phone_number,
			whatsapp_number = EXCLUDED.whatsapp_number,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		userID,
		form.Notifications.ProductUpdates,
		form.Notifications.MarketingEmails,
		form.SummaryChannels.Email,
		form.SummaryChannels.WhatsApp,
		form.PreferredTime,
		form.Timezone,
		form.Language,
		form.FullName,
		form.PhoneNumber,
		form.WhatsappNumber,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Patch updates only the columns set in patch and returns the stored result.
func (r *Repository) Patch(ctx context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.SettingsFormData, error) {
	sets, args := patchColumns(patch)
	if len(sets) == 0 {
		return r.Get(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE user_settings SET %s, updated_at = NOW() WHERE user_id = $%d
		RETURNING product_updates, marketing_emails, summary_email, summary_whatsapp,
			preferred_time, timezone, language, full_name, phone_number, whatsapp_number`,
		strings.Join(sets, ", "), len(args))

	form, err := scanSettings(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "settings", Key: userID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("patch settings: %w", err)
	}
	return form, nil
}

func patchColumns(patch models.SettingsPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Notifications != nil {
		add("product_updates", patch.Notifications.ProductUpdates)
		add("marketing_emails", patch.Notifications.MarketingEmails)
	}
	if patch.SummaryChannels != nil {
		add("summary_email", patch.SummaryChannels.Email)
		add("summary_whatsapp", patch.SummaryChannels.WhatsApp)
	}
	if patch.PreferredTime != nil {
		add("preferred_time", *patch.PreferredTime)
	}
	if patch.Timezone != nil {
		add("timezone", *patch.Timezone)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	if patch.FullName.Set {
		add("full_name", patch.FullName.Value)
	}
	if patch.PhoneNumber.Set {
		add("phone_number", patch.PhoneNumber.Value)
	}
	if patch.WhatsappNumber.Set {
		add("whatsapp_number", patch.WhatsappNumber.Value)
	}
	return sets, args
}

func scanSettings(row pgx.Row) (*models.SettingsFormData, error) {
	var form models.SettingsFormData
	err := row.Scan(
		&form.Notifications.ProductUpdates,
		&form.Notifications.MarketingEmails,
		&form.SummaryChannels.Email,
		&form.SummaryChannels.WhatsApp,
		&form.PreferredTime,
		&form.Timezone,
		&form.Language,
		&form.FullName,
		&form.PhoneNumber,
		&form.WhatsappNumber,
	)
	if err != nil {
		return nil, err
	}
	return &form, nil
}
