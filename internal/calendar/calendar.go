package calendar

import (
	"log/slog"

	"taxcal/internal/calendar/handler"
	"taxcal/internal/calendar/service"
	"taxcal/internal/documents"
	"taxcal/internal/revenue"
)

// Service exposes compliance calendar orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the calendar service.
type Handler = handler.Handler

// NewService constructs the calendar service with required dependencies.
func NewService(profiles service.ProfileStore, templates service.TemplateStore, instances service.InstanceStore, attachments service.AttachmentStore, rev revenue.Source, docs documents.Checker, opts ...service.Option) *Service {
	return service.New(profiles, templates, instances, attachments, rev, docs, opts...)
}

// NewHandler constructs an HTTP handler for the tax calendar routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
