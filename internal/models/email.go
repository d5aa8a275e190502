package models

import (
	"strings"
	"unicode"
)

// PreviewLength is the number of runes kept in UnsummarizedEmail.Preview.
const PreviewLength = 200

// EmailData is the normalized view of a mailbox message returned by the fetch gateway.
type EmailData struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Snippet  string   `json:"snippet"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Date     string   `json:"date"`
	LabelIDs []string `json:"labelIds"`
}

// EmailDataWithContent carries the decoded text body alongside the metadata.
type EmailDataWithContent struct {
	EmailData
	Body string `json:"body"`
}

// UnsummarizedEmail is the compact shape handed to the summarizer.
type UnsummarizedEmail struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	Date     string `json:"date"`
	Preview  string `json:"preview"`
}

// Unsummarized builds the compact shape, collapsing whitespace in the preview.
func (e EmailDataWithContent) Unsummarized() UnsummarizedEmail {
	return UnsummarizedEmail{
		ID:       e.ID,
		ThreadID: e.ThreadID,
		Subject:  e.Subject,
		From:     e.From,
		Date:     e.Date,
		Preview:  preview(e.Body, PreviewLength),
	}
}

func preview(body string, limit int) string {
	collapsed := strings.Join(strings.FieldsFunc(body, unicode.IsSpace), " ")
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	return string(runes[:limit])
}
