package main

import (
	"context"

	"rinknet/internal/contact"
	"rinknet/pkg/domain"
)

// pairChecker breaks the construction cycle between the player and contact
// services: players need approved-pair checks for masking, the contact
// service needs player ownership lookups. The player service is built first
// with this placeholder, then the contact service is bound.
type pairChecker struct {
	contacts *contact.Service
}

func (p *pairChecker) IsApprovedPair(ctx context.Context, viewer domain.AccountContext, parentID domain.ParentID) (bool, error) {
	if p.contacts == nil {
		return false, nil
	}
	return p.contacts.IsApprovedPair(ctx, viewer, parentID)
}
