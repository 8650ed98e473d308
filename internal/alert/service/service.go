// Package service dispatches emergency location alerts by SMS.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"

	"safedesk/internal/alert/gateway"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Sender delivers a text message.
type Sender interface {
	Send(ctx context.Context, to, body string) (*gateway.Receipt, error)
}

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// SOS is one emergency request. Nothing about it is stored.
type SOS struct {
	Lat         float64
	Lng         float64
	PhoneNumber string
}

// Dispatch reports the gateway's acceptance of an alert.
type Dispatch struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type Service struct {
	sender Sender
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(sender Sender, opts ...Option) *Service {
	s := &Service{
		sender: sender,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send texts a map link for the caller's position to the given contact.
// The phone number and position are never logged.
func (s *Service) Send(ctx context.Context, sos SOS) (*Dispatch, error) {
	if err := validate(sos); err != nil {
		return nil, err
	}

	receipt, err := s.sender.Send(ctx, sos.PhoneNumber, Message(sos.Lat, sos.Lng))
	if err != nil {
		s.logger.ErrorContext(ctx, "sos dispatch failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeDependencyUnavailable, "Emergency alert could not be sent")
	}

	s.logger.InfoContext(ctx, "sos dispatched",
		"request_id", requestcontext.RequestID(ctx),
		"message_sid", receipt.SID,
		"status", receipt.Status,
	)
	return &Dispatch{Success: true, Status: receipt.Status}, nil
}

// Message is the SMS body for a position.
func Message(lat, lng float64) string {
	return fmt.Sprintf("EMERGENCY ALERT\nMy live location:\nhttps://www.google.com/maps?q=%.6f,%.6f", lat, lng)
}

func validate(sos SOS) error {
	if math.IsNaN(sos.Lat) || math.IsNaN(sos.Lng) || sos.Lat < -90 || sos.Lat > 90 || sos.Lng < -180 || sos.Lng > 180 {
		return dErrors.New(dErrors.CodeValidation, "Location is invalid")
	}
	if !e164.MatchString(sos.PhoneNumber) {
		return dErrors.New(dErrors.CodeValidation, "phone_number must be in international format, e.g. +919876543210")
	}
	return nil
}
