package view

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the path under which issued blob URLs resolve.
const URLPrefix = "/blobs/"

// URLIssuer hands out temporary reference URLs for attachment blobs: opaque
// tokens the display surface can dereference without ever holding the bytes
// inline. Preview URLs live until the next render cycle revokes them; open
// URLs expire after a fixed delay.
type URLIssuer struct {
	mu       sync.Mutex
	tokens   map[string]tokenEntry // token -> attachment binding
	previews map[string]string     // attachment id -> issued preview URL
	now      func() time.Time
}

type tokenEntry struct {
	attachmentID string
	expires      time.Time // zero = no expiry (revoked explicitly)
}

// NewURLIssuer creates an empty issuer.
func NewURLIssuer() *URLIssuer {
	return &URLIssuer{
		tokens:   make(map[string]tokenEntry),
		previews: make(map[string]string),
		now:      time.Now,
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IssuePreview issues a URL for an attachment preview, tracked until the
// next RevokePreviews call.
func (u *URLIssuer) IssuePreview(attachmentID string) string {
	u.mu.Lock()
	defer u.mu.Unlock()

	token := newToken()
	u.tokens[token] = tokenEntry{attachmentID: attachmentID}
	url := URLPrefix + token
	u.previews[attachmentID] = url
	return url
}

// PreviewURL returns the currently issued preview URL for an attachment,
// if any.
func (u *URLIssuer) PreviewURL(attachmentID string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	url, ok := u.previews[attachmentID]
	return url, ok
}

// IssueOpen issues a URL that expires after ttl.
func (u *URLIssuer) IssueOpen(attachmentID string, ttl time.Duration) string {
	u.mu.Lock()
	defer u.mu.Unlock()

	token := newToken()
	u.tokens[token] = tokenEntry{
		attachmentID: attachmentID,
		expires:      u.now().Add(ttl),
	}

	// Drop the binding once the delay passes so failed opens cannot pile
	// up live tokens.
	time.AfterFunc(ttl, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		delete(u.tokens, token)
	})

	return URLPrefix + token
}

// Resolve maps a live token back to its attachment id.
func (u *URLIssuer) Resolve(url string) (string, bool) {
	token := strings.TrimPrefix(url, URLPrefix)

	u.mu.Lock()
	defer u.mu.Unlock()

	entry, ok := u.tokens[token]
	if !ok {
		return "", false
	}
	if !entry.expires.IsZero() && u.now().After(entry.expires) {
		delete(u.tokens, token)
		return "", false
	}
	return entry.attachmentID, true
}

// RevokePreviews revokes every issued preview URL. Called at the start of
// each render cycle so stale URLs cannot accumulate across re-renders.
func (u *URLIssuer) RevokePreviews() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, url := range u.previews {
		delete(u.tokens, strings.TrimPrefix(url, URLPrefix))
	}
	u.previews = make(map[string]string)
}
