package store

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// LinkSigner issues and verifies expiring HMAC-signed download links of the
// form "/files/<path>?exp=<unix>&sig=<hex>#page=N". With an empty secret it
// issues unsigned "/files/<path>#page=N" links and accepts anything, for
// single-user local deployments.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner creates a LinkSigner. ttl <= 0 defaults to one hour.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Resolve implements the linkify resolver: a viewable URL opening filePath at
// page. It never fails; the bool satisfies the interface.
func (l *LinkSigner) Resolve(filePath string, page int) (string, bool) {
	escaped := escapePath(filePath)
	if len(l.secret) == 0 {
		return fmt.Sprintf("/files/%s#page=%d", escaped, page), true
	}

	exp := l.now().Add(l.ttl).Unix()
	sig := l.sign(filePath, exp)
	return fmt.Sprintf("/files/%s?exp=%d&sig=%s#page=%d", escaped, exp, sig, page), true
}

// Verify checks a signed request's path, expiry, and signature. With no
// secret configured every request passes.
func (l *LinkSigner) Verify(filePath, expStr, sig string) error {
	if len(l.secret) == 0 {
		return nil
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry")
	}
	if l.now().Unix() > exp {
		return fmt.Errorf("link expired")
	}
	if !hmac.Equal([]byte(l.sign(filePath, exp)), []byte(sig)) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

func (l *LinkSigner) sign(filePath string, exp int64) string {
	mac := hmac.New(sha256.New, l.secret)
	fmt.Fprintf(mac, "%s\x00%d", filePath, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// escapePath percent-encodes each path segment while keeping the slashes.
func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
