package models

import "encoding/json"

// Tone values accepted for SettingsFormData.Language.
const (
	ToneFriendly     = "friendly"
	ToneProfessional = "professional"
	ToneConcise      = "concise"
)

type NotificationSettings struct {
	ProductUpdates  bool `json:"productUpdates"`
	MarketingEmails bool `json:"marketingEmails"`
}

type SummaryChannels struct {
	Email    bool `json:"email"`
	WhatsApp bool `json:"whatsapp"`
}

// SettingsFormData is a user's complete preference bundle.
type SettingsFormData struct {
	Notifications   NotificationSettings `json:"notifications"`
	SummaryChannels SummaryChannels      `json:"summaryChannels"`
	PreferredTime   string               `json:"preferredTime"`
	Timezone        string               `json:"timezone"`
	Language        string               `json:"language"`
	FullName        *string              `json:"fullName"`
	PhoneNumber     *string              `json:"phoneNumber"`
	WhatsappNumber  *string              `json:"whatsappNumber"`
}

// SettingsPatch is a partial update. Nil fields were absent from the request.
// A supplied nested object replaces the stored one as a whole.
type SettingsPatch struct {
	Notifications   *NotificationSettings `json:"notifications,omitempty"`
	SummaryChannels *SummaryChannels      `json:"summaryChannels,omitempty"`
	PreferredTime   *string               `json:"preferredTime,omitempty" validate:"omitnil,hhmm"`
	Timezone        *string               `json:"timezone,omitempty" validate:"omitnil,timezone"`
	Language        *string               `json:"language,omitempty" validate:"omitnil,oneof=friendly professional concise"`
	FullName        NullableString        `json:"fullName"`
	PhoneNumber     NullableString        `json:"phoneNumber"`
	WhatsappNumber  NullableString        `json:"whatsappNumber"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.Notifications == nil && p.SummaryChannels == nil &&
		p.PreferredTime == nil && p.Timezone == nil && p.Language == nil &&
		!p.FullName.Set && !p.PhoneNumber.Set && !p.WhatsappNumber.Set
}

// NullableString distinguishes an absent key (Set false) from an explicit null (Set true, Value nil).
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// Apply overlays the set fields of p onto base.
func (p SettingsPatch) Apply(base SettingsFormData) SettingsFormData {
	if p.Notifications != nil {
		base.Notifications = *p.Notifications
	}
	if p.SummaryChannels != nil {
		base.SummaryChannels = *p.SummaryChannels
	}
	if p.PreferredTime != nil {
		base.PreferredTime = *p.PreferredTime
	}
	if p.Timezone != nil {
		base.Timezone = *p.Timezone
	}
	if p.Language != nil {
		base.Language = *p.Language
	}
	if p.FullName.Set {
		base.FullName = p.FullName.Value
	}
	if p.PhoneNumber.Set {
		base.PhoneNumber = p.PhoneNumber.Value
	}
	if p.WhatsappNumber.Set {
		base.WhatsappNumber = p.WhatsappNumber.Value
	}
	return base
}
