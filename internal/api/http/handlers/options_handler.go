package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-intake/internal/api/dto"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/service"
)

// OptionsHandler serves the static selection tables.
type OptionsHandler struct {
	options dto.OptionsResponse
}

// NewOptionsHandler builds the tables once.
func NewOptionsHandler() *OptionsHandler {
	resp := dto.OptionsResponse{
		AttachmentHint:     service.AttachmentHint,
		AcceptedExtensions: service.AcceptedExtensions,
	}
	for _, c := range domain.AllCategories() {
		if opt, ok := domain.LookupCategory(c); ok {
			resp.Categories = append(resp.Categories, opt)
		}
	}
	for _, p := range domain.AllPriorities() {
		if opt, ok := domain.LookupPriority(p); ok {
			resp.Priorities = append(resp.Priorities, opt)
		}
		resp.ResponseTimes = append(resp.ResponseTimes, domain.ResponseTimeHint(p))
	}
	for _, t := range domain.AllTicketTypes() {
		if opt, ok := domain.LookupTicketType(t); ok {
			resp.Types = append(resp.Types, opt)
		}
	}
	return &OptionsHandler{options: resp}
}

// List GET /options.
func (h *OptionsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.options})
}
