package refdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/besy-hub/besy-orders/internal/filter"
	"github.com/besy-hub/besy-orders/internal/orders"
)

// bookingYearFloor is the first booking year BeSy knows about.
const bookingYearFloor = 2000

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	CostCenters(ctx context.Context) ([]CostCenter, error)
	Users(ctx context.Context) ([]StaffUser, error)
	Persons(ctx context.Context) ([]Person, error)
	Suppliers(ctx context.Context) ([]Supplier, error)
}

// Service turns reference collections into filter chip domains.
type Service struct {
	repo     RepositoryPort
	collator *collate.Collator
	now      func() time.Time
}

// NewService constructs the reference data service.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo:     repo,
		collator: collate.New(language.German, collate.IgnoreCase),
		now:      time.Now,
	}
}

// CostCenterChips builds the cost center chip domain.
func (s *Service) CostCenterChips(ctx context.Context) ([]filter.Chip, error) {
	centers, err := s.repo.CostCenters(ctx)
	if err != nil {
		return nil, fmt.Errorf("refdata: cost centers: %w", err)
	}
	chips := make([]filter.Chip, 0, len(centers))
	for _, cc := range centers {
		chips = append(chips, filter.Chip{
			ID:      filter.FormatChipID(cc.ID),
			Label:   cc.Code,
			Tooltip: cc.Name,
		})
	}
	s.sortChips(chips)
	return chips, nil
}

// UserChips builds the order owner chip domain.
func (s *Service) UserChips(ctx context.Context) ([]filter.Chip, error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("refdata: users: %w", err)
	}
	chips := make([]filter.Chip, 0, len(users))
	for _, u := range users {
		chips = append(chips, filter.Chip{ID: u.ID, Label: u.Name})
	}
	s.sortChips(chips)
	return chips, nil
}

// PersonChips builds the person chip domain shared by the delivery, invoice
// and queries fields.
func (s *Service) PersonChips(ctx context.Context) ([]filter.Chip, error) {
	persons, err := s.repo.Persons(ctx)
	if err != nil {
		return nil, fmt.Errorf("refdata: persons: %w", err)
	}
	chips := make([]filter.Chip, 0, len(persons))
	for _, p := range persons {
		chips = append(chips, filter.Chip{ID: filter.FormatChipID(p.ID), Label: p.Name})
	}
	s.sortChips(chips)
	return chips, nil
}

// SupplierChips builds the supplier chip domain.
func (s *Service) SupplierChips(ctx context.Context) ([]filter.Chip, error) {
	suppliers, err := s.repo.Suppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("refdata: suppliers: %w", err)
	}
	chips := make([]filter.Chip, 0, len(suppliers))
	for _, sup := range suppliers {
		chips = append(chips, filter.Chip{ID: filter.FormatChipID(sup.ID), Label: sup.Name})
	}
	s.sortChips(chips)
	return chips, nil
}

// Status display names and chip colors.
var statusDisplay = map[orders.Status]struct {
	Label string
	Color string
}{
	orders.StatusDraft:      {Label: "Entwurf", Color: "#9e9e9e"},
	orders.StatusInProgress: {Label: "In Bearbeitung", Color: "#1e88e5"},
	orders.StatusOrdered:    {Label: "Bestellt", Color: "#fb8c00"},
	orders.StatusDelivered:  {Label: "Geliefert", Color: "#7cb342"},
	orders.StatusInvoiced:   {Label: "Berechnet", Color: "#8e24aa"},
	orders.StatusCompleted:  {Label: "Abgeschlossen", Color: "#43a047"},
	orders.StatusCancelled:  {Label: "Storniert", Color: "#e53935"},
}

// StatusChips builds the status chip domain from the static display table.
func (s *Service) StatusChips() []filter.Chip {
	statuses := orders.Statuses()
	chips := make([]filter.Chip, 0, len(statuses))
	for _, status := range statuses {
		display := statusDisplay[status]
		chips = append(chips, filter.Chip{
			ID:    string(status),
			Label: display.Label,
			Color: display.Color,
		})
	}
	return chips
}

// BookingYearChips synthesises one chip per booking year from 2000 up to the
// current year. Ids are the two-digit year suffix, labels the full year.
func (s *Service) BookingYearChips() []filter.Chip {
	current := s.now().Year()
	chips := make([]filter.Chip, 0, current-bookingYearFloor+1)
	for year := bookingYearFloor; year <= current; year++ {
		chips = append(chips, filter.Chip{
			ID:    fmt.Sprintf("%02d", year%100),
			Label: strconv.Itoa(year),
		})
	}
	return chips
}

func (s *Service) sortChips(chips []filter.Chip) {
	sort.SliceStable(chips, func(i, j int) bool {
		return s.collator.CompareString(chips[i].Label, chips[j].Label) < 0
	})
}
