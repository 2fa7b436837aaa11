package domain

// Option is the presentation tuple rendered for a selected value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// LookupCategory resolves the display option for c. Unset or unknown values resolve to nothing.
func LookupCategory(c Category) (Option, bool) {
	switch c {
	case CategoryTechnical:
		return Option{Value: string(c), Label: "Technical issue", Icon: "🔧", Color: "emerald"}, true
	case CategoryAccount:
		return Option{Value: string(c), Label: "User account", Icon: "👤", Color: "blue"}, true
	case CategoryBilling:
		return Option{Value: string(c), Label: "Billing", Icon: "💳", Color: "amber"}, true
	case CategoryFeature:
		return Option{Value: string(c), Label: "Feature request", Icon: "✨", Color: "purple"}, true
	case CategoryBug:
		return Option{Value: string(c), Label: "Bug report", Icon: "🐛", Color: "red"}, true
	case CategoryOther:
		return Option{Value: string(c), Label: "Other", Icon: "📋", Color: "gray"}, true
	}
	return Option{}, false
}

// LookupPriority resolves the display option for p.
func LookupPriority(p TicketPriority) (Option, bool) {
	switch p {
	case TicketPriorityLow:
		return Option{Value: string(p), Label: "Low", Icon: "🟢", Color: "gray"}, true
	case TicketPriorityMedium:
		return Option{Value: string(p), Label: "Medium", Icon: "🟡", Color: "amber"}, true
	case TicketPriorityHigh:
		return Option{Value: string(p), Label: "High", Icon: "🟠", Color: "orange"}, true
	case TicketPriorityUrgent:
		return Option{Value: string(p), Label: "Urgent", Icon: "🔴", Color: "red"}, true
	}
	return Option{}, false
}

// LookupTicketType resolves the display option for t.
func LookupTicketType(t TicketType) (Option, bool) {
	switch t {
	case TicketTypeIncident:
		return Option{Value: string(t), Label: "Incident", Icon: "⚠️", Color: "emerald"}, true
	case TicketTypeRequest:
		return Option{Value: string(t), Label: "Request", Icon: "📝", Color: "emerald"}, true
	case TicketTypeComplaint:
		return Option{Value: string(t), Label: "Complaint", Icon: "😤", Color: "emerald"}, true
	case TicketTypeSuggestion:
		return Option{Value: string(t), Label: "Suggestion", Icon: "💡", Color: "emerald"}, true
	}
	return Option{}, false
}

// ResponseTime is the estimated first-response window shown for a priority.
// It is presentation only; nothing enforces it.
type ResponseTime struct {
	Priority      TicketPriority `json:"priority,omitempty"`
	Window        string         `json:"window,omitempty"`
	BusinessHours bool           `json:"business_hours"`
	Text          string         `json:"text"`
}

// ResponseTimePrompt is shown while no priority is selected.
const ResponseTimePrompt = "Select a priority to see the estimated response time"

// ResponseTimeHint maps a priority to its response window.
func ResponseTimeHint(p TicketPriority) ResponseTime {
	switch p {
	case TicketPriorityUrgent:
		return ResponseTime{Priority: p, Window: "2h", BusinessHours: true, Text: "Urgent: response within 2h during business hours"}
	case TicketPriorityHigh:
		return ResponseTime{Priority: p, Window: "4h", BusinessHours: true, Text: "High: response within 4h during business hours"}
	case TicketPriorityMedium:
		return ResponseTime{Priority: p, Window: "24h", Text: "Medium: response within 24h"}
	case TicketPriorityLow:
		return ResponseTime{Priority: p, Window: "72h", Text: "Low: response within 72h"}
	}
	return ResponseTime{Text: ResponseTimePrompt}
}
