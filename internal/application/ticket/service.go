package ticket

import (
	"strings"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
)

type Service struct {
	repo            TicketRepo
	clock           Clock
	defaultCurrency string
}

func New(repo TicketRepo, clock Clock, defaultCurrency string) *Service {
	defaultCurrency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &Service{repo: repo, clock: clock, defaultCurrency: defaultCurrency}
}

func isAdmin(role string) bool { return role == string(domain.RoleAdmin) }

func canAccess(actorID, actorRole, ownerID string) bool {
	if isAdmin(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == ownerID
}

func clampPage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
