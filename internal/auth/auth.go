// Package auth carries the requesting subject through the request context.
// Permission tokens are opaque to the settings core: a definition either
// names a token the subject must hold or it doesn't.
package auth

import (
	"context"
)

type contextKey string

const subjectContextKey contextKey = "settingsd:subject"

// Subject is the entity a setting value is scoped to, together with the
// opaque permission tokens it holds.
type Subject struct {
	ID          string
	Permissions []string
}

// Anonymous reports whether the subject has no concrete identity.
func (s Subject) Anonymous() bool { return s.ID == "" }

// Can reports whether the subject holds the given permission token. The
// empty token is unrestricted.
func (s Subject) Can(token string) bool {
	if token == "" {
		return true
	}
	for _, p := range s.Permissions {
		if p == token {
			return true
		}
	}
	return false
}

// WithSubject returns a context carrying the subject.
func WithSubject(ctx context.Context, sub Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, sub)
}

// SubjectFromContext extracts the subject from the context. A context
// without a subject yields the anonymous subject.
func SubjectFromContext(ctx context.Context) Subject {
	if sub, ok := ctx.Value(subjectContextKey).(Subject); ok {
		return sub
	}
	return Subject{}
}
