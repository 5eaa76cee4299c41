package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"
)

const (
	requestContextKey = "request_context"
	sessionAdminKey   = "admin_username"
	sessionNoticesKey = "notices"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a one-shot message shown on the next request.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RequestContext is the per-request view of the session: who is signed in,
// the notices carried over from the previous request, and the notices queued
// for the next one.
type RequestContext struct {
	Authenticated bool
	AdminUsername string
	Notices       []Notice

	pending   []Notice
	sess      *session.Session
	dirty     bool
	destroyed bool
}

// AddNotice queues a notice for the following request.
func (rc *RequestContext) AddNotice(kind, message string) {
	rc.pending = append(rc.pending, Notice{Kind: kind, Message: message})
	rc.dirty = true
}

// SignIn starts a fresh authenticated session.
func (rc *RequestContext) SignIn(username string) error {
	if rc.sess == nil {
		return fiber.ErrInternalServerError
	}
	if err := rc.sess.Regenerate(); err != nil {
		return err
	}
	rc.sess.Set(sessionAdminKey, username)
	rc.Authenticated = true
	rc.AdminUsername = username
	rc.dirty = true
	return nil
}

// SignOut destroys the session.
func (rc *RequestContext) SignOut() error {
	rc.Authenticated = false
	rc.AdminUsername = ""
	rc.pending = nil
	if rc.sess == nil {
		return nil
	}
	rc.destroyed = true
	return rc.sess.Destroy()
}

// Ctx returns the RequestContext attached by SessionMiddleware, or an empty
// anonymous context when the middleware did not run.
func Ctx(c *fiber.Ctx) *RequestContext {
	if rc, ok := c.Locals(requestContextKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{}
}

// SessionMiddleware loads the session into a RequestContext and persists
// queued notices after the handler ran.
func SessionMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}

		rc := &RequestContext{sess: sess}
		if username, ok := sess.Get(sessionAdminKey).(string); ok && username != "" {
			rc.Authenticated = true
			rc.AdminUsername = username
		}
		if raw, ok := sess.Get(sessionNoticesKey).(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &rc.Notices); err != nil {
				log.Warn().Err(err).Msg("discarding unreadable session notices")
			}
			sess.Delete(sessionNoticesKey)
			rc.dirty = true
		}
		c.Locals(requestContextKey, rc)

		handlerErr := c.Next()

		if rc.destroyed || !rc.dirty {
			return handlerErr
		}
		if len(rc.pending) > 0 {
			raw, err := json.Marshal(rc.pending)
			if err == nil {
				sess.Set(sessionNoticesKey, string(raw))
			}
		}
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("path", c.Path()).Msg("failed to save session")
		}
		return handlerErr
	}
}
