// Package store persists alerts and authority responses.
package store

import (
	"smartourism/internal/alert/models"
	id "smartourism/pkg/domain"
)

// Filter narrows alert listings. A nil EntityID matches every entity and
// empty Statuses matches every status.
type Filter struct {
	EntityID *id.EntityID
	Statuses []models.Status
}

func (f Filter) matches(a *models.Alert) bool {
	if f.EntityID != nil && a.EntityID != *f.EntityID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
