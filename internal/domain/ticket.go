package domain

import "fmt"

// Category enumerates the routing categories a requester can pick.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryAccount   Category = "account"
	CategoryBilling   Category = "billing"
	CategoryFeature   Category = "feature"
	CategoryBug       Category = "bug"
	CategoryOther     Category = "other"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketType enumerates the nature of the request.
type TicketType string

const (
	TicketTypeIncident   TicketType = "incident"
	TicketTypeRequest    TicketType = "request"
	TicketTypeComplaint  TicketType = "complaint"
	TicketTypeSuggestion TicketType = "suggestion"
)

// AllCategories returns categories in display order.
func AllCategories() []Category {
	return []Category{CategoryTechnical, CategoryAccount, CategoryBilling, CategoryFeature, CategoryBug, CategoryOther}
}

// AllPriorities returns priorities in display order.
func AllPriorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

// AllTicketTypes returns ticket types in display order.
func AllTicketTypes() []TicketType {
	return []TicketType{TicketTypeIncident, TicketTypeRequest, TicketTypeComplaint, TicketTypeSuggestion}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryAccount, CategoryBilling, CategoryFeature, CategoryBug, CategoryOther:
		return true
	}
	return false
}

// Valid reports whether p is one of the declared priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Valid reports whether t is one of the declared ticket types.
func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeIncident, TicketTypeRequest, TicketTypeComplaint, TicketTypeSuggestion:
		return true
	}
	return false
}

// ParseCategory converts raw input. The empty string means "not selected".
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if raw != "" && !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// ParsePriority converts raw input. The empty string means "not selected".
func ParsePriority(raw string) (TicketPriority, error) {
	p := TicketPriority(raw)
	if raw != "" && !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

// ParseTicketType converts raw input. The empty string means "not selected".
func ParseTicketType(raw string) (TicketType, error) {
	t := TicketType(raw)
	if raw != "" && !t.Valid() {
		return "", fmt.Errorf("unknown ticket type %q", raw)
	}
	return t, nil
}
