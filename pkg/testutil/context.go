package testutil

import (
	"net/http"
	"time"

	"rinknet/pkg/domain"
	"rinknet/pkg/requestcontext"
)

// WithAccount stamps an acting account onto the request context, simulating
// what the auth middleware does for authenticated requests.
func WithAccount(req *http.Request, acct domain.AccountContext) *http.Request {
	return req.WithContext(requestcontext.WithAccount(req.Context(), acct))
}

// ParentActor builds an AccountContext for a parent account.
func ParentActor(accountID domain.AccountID, parentID domain.ParentID) domain.AccountContext {
	return domain.AccountContext{
		AccountID: accountID,
		Role:      domain.RoleParent,
		ParentID:  parentID,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
}

// CoachActor builds an AccountContext for a coach account.
func CoachActor(accountID domain.AccountID, coachID domain.CoachID) domain.AccountContext {
	return domain.AccountContext{
		AccountID: accountID,
		Role:      domain.RoleCoach,
		CoachID:   coachID,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
}

// AdminActor builds an AccountContext with the admin role.
func AdminActor(accountID domain.AccountID) domain.AccountContext {
	return domain.AccountContext{
		AccountID: accountID,
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
}

// WithRequestID stamps a request ID onto the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
