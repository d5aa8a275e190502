// Package mock keeps an in-memory Gmail mailbox for local development.
package mock

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"
)

var (
	senders  = []string{"Jane Smith <jane@example.com>", "Billing <billing@company.com>", "Bob Brown <bob@business.org>", "Alerts <noreply@enterprise.net>"}
	subjects = []string{
		"Meeting tomorrow",
		"Project update",
		"Budget review",
		"Team lunch",
		"Quarterly report",
		"Client feedback",
		"Urgent: Action required",
		"Follow up",
	}
)

type message struct {
	id         string
	threadID   string
	from       string
	subject    string
	body       string
	receivedAt time.Time
}

// Mailbox holds messages newest first.
type Mailbox struct {
	mu       sync.RWMutex
	address  string
	messages []message
	counter  int
	now      func() time.Time
}

// NewMailbox creates a mailbox pre-filled with seed messages.
func NewMailbox(address string, seed int) *Mailbox {
	m := &Mailbox{address: address, now: time.Now}
	m.Add(seed)
	return m
}

func (m *Mailbox) Address() string {
	return m.address
}

// Add generates n messages and returns the new total.
func (m *Mailbox) Add(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < n; i++ {
		msg := m.generate()
		m.messages = append([]message{msg}, m.messages...)
		m.counter++
	}
	return len(m.messages)
}

func (m *Mailbox) generate() message {
	subject := subjects[m.counter%len(subjects)]
	from := senders[rand.Intn(len(senders))]
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	receivedAt := m.now().Add(-time.Duration(rand.Intn(60)) * time.Second)

	return message{
		id:       id,
		threadID: id,
		from:     from,
		subject:  fmt.Sprintf("%s [%d]", subject, m.counter),
		body: fmt.Sprintf(
			"Hello,\n\nFull email body for: %s\n\nThis is mock content for %s.\nReceived at: %s\n\nBest regards,\nThe Mock Server",
			subject, m.address, receivedAt.Format(time.RFC3339Nano),
		),
		receivedAt: receivedAt,
	}
}

// Profile mirrors users.getProfile.
func (m *Mailbox) Profile() *gmail.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &gmail.Profile{
		EmailAddress:  m.address,
		MessagesTotal: int64(len(m.messages)),
		ThreadsTotal:  int64(len(m.messages)),
		HistoryId:     uint64(m.counter),
	}
}

// List mirrors users.messages.list: ids only, newest first. query is matched
// as a case-insensitive substring of the subject, sender or body.
func (m *Mailbox) List(maxResults int, query string) *gmail.ListMessagesResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	resp := &gmail.ListMessagesResponse{Messages: []*gmail.Message{}}
	for _, msg := range m.messages {
		if query != "" && !msg.matches(query) {
			continue
		}
		if len(resp.Messages) == maxResults {
			break
		}
		resp.Messages = append(resp.Messages, &gmail.Message{Id: msg.id, ThreadId: msg.threadID})
	}
	resp.ResultSizeEstimate = int64(len(resp.Messages))
	return resp
}

// Get mirrors users.messages.get for the metadata and full formats.
func (m *Mailbox) Get(id, format string, headers []string) (*gmail.Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, msg := range m.messages {
		if msg.id == id {
			return msg.toGmail(format, headers), true
		}
	}
	return nil, false
}

func (msg message) matches(query string) bool {
	return strings.Contains(strings.ToLower(msg.subject), query) ||
		strings.Contains(strings.ToLower(msg.from), query) ||
		strings.Contains(strings.ToLower(msg.body), query)
}

func (msg message) snippet() string {
	s := strings.Join(strings.Fields(msg.body), " ")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

func (msg message) toGmail(format string, only []string) *gmail.Message {
	headers := []*gmail.MessagePartHeader{
		{Name: "From", Value: msg.from},
		{Name: "Subject", Value: msg.subject},
		{Name: "Date", Value: msg.receivedAt.Format(time.RFC1123Z)},
	}
	if len(only) > 0 {
		headers = filterHeaders(headers, only)
	}

	out := &gmail.Message{
		Id:           msg.id,
		ThreadId:     msg.threadID,
		LabelIds:     []string{"INBOX", "UNREAD"},
		Snippet:      msg.snippet(),
		InternalDate: msg.receivedAt.UnixMilli(),
		Payload:      &gmail.MessagePart{MimeType: "multipart/alternative", Headers: headers},
	}
	if format != "full" {
		return out
	}

	html := "<p>" + strings.ReplaceAll(msg.body, "\n", "<br>") + "</p>"
	out.Payload.Parts = []*gmail.MessagePart{
		{PartId: "0", MimeType: "text/plain", Body: encodedBody(msg.body)},
		{PartId: "1", MimeType: "text/html", Body: encodedBody(html)},
	}
	return out
}

func filterHeaders(headers []*gmail.MessagePartHeader, only []string) []*gmail.MessagePartHeader {
	out := make([]*gmail.MessagePartHeader, 0, len(headers))
	for _, h := range headers {
		for _, name := range only {
			if strings.EqualFold(h.Name, name) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

func encodedBody(s string) *gmail.MessagePartBody {
	return &gmail.MessagePartBody{
		Size: int64(len(s)),
		Data: base64.URLEncoding.EncodeToString([]byte(s)),
	}
}
