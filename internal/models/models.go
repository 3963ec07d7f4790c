// Package models contains the domain structures of the reminder engine and
// the request types received from JSON payloads before conversion.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a registered vehicle whose insurance anniversary drives all
// scheduling decisions. RenewalDate is a calendar date; the time component
// is always midnight UTC.
type Vehicle struct {
	ID               int
	UserUID          string
	Plate            string
	Nickname         string
	RenewalDate      time.Time
	CurrentAnnualFee *int // yearly fee in HUF, nil when unknown
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DummyVehicle receives vehicle data from a JSON request. The renewal date
// arrives as a string so it can be validated and parsed by hand.
type DummyVehicle struct {
	UserUID          string `json:"user_uid" validate:"required"`
	Plate            string `json:"plate" validate:"required,alphanum"`
	Nickname         string `json:"nickname"`
	RenewalDate      string `json:"renewal_date" validate:"required,datetime=2006-01-02"`
	CurrentAnnualFee *int   `json:"current_annual_fee" validate:"omitempty,gt=0"`
}

// NotificationPreference belongs to exactly one user. The engine only reads
// it; it is mutated through the settings endpoints.
type NotificationPreference struct {
	UserUID               string
	Email                 string
	Name                  string
	EmailRemindersEnabled bool
	ReminderOffsets       []int // days before renewal, e.g. 50, 30, 7
}

// DummyPreference receives preference updates from a JSON request.
type DummyPreference struct {
	Email                 string `json:"email" validate:"required,email"`
	Name                  string `json:"name" validate:"required"`
	EmailRemindersEnabled bool   `json:"email_reminders_enabled"`
	ReminderOffsets       []int  `json:"reminder_offsets" validate:"omitempty,dive,gt=0"`
}

// ReminderAttempt is the deduplication ledger and delivery log. At most one
// row may ever exist per (VehicleID, OffsetLabel); the orchestrator creates
// rows only after confirmed delivery and the tracking worker flips the flags.
// Recipient fields are a snapshot taken at send time so the log stays useful
// after the vehicle or the user changes.
type ReminderAttempt struct {
	ID                uuid.UUID
	VehicleID         int
	OffsetLabel       string
	SentAt            time.Time
	RecipientName     string
	RecipientEmail    string
	Plate             string
	Nickname          string
	Opened            bool
	LinkClicked       bool
	CallbackRequested bool
	OfferRequested    bool
}

// EmailTemplate holds one reminder template, keyed reminder_<offset>.
// Subject and Body contain {{placeholder}} tokens.
type EmailTemplate struct {
	TemplateKey string
	Subject     string
	Body        string
	UpdatedAt   time.Time
}

// DummyTemplate receives template upserts from a JSON request.
type DummyTemplate struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// ReminderCandidate is one vehicle due for a reminder, joined with its
// owner's preference record. Preference is nil when the owner has no
// preference row (a data error: the candidate is skipped and logged).
type ReminderCandidate struct {
	Vehicle    Vehicle
	Preference *NotificationPreference
}

// OffsetResult aggregates one orchestration pass for a single offset.
type OffsetResult struct {
	Offset       int      `json:"offset"`
	SentCount    int      `json:"sentCount"`
	DedupedCount int      `json:"dedupedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors"`
}

// Tracking event kinds carried over the tracking queue.
const (
	TrackingOpen     = "open"
	TrackingClick    = "click"
	TrackingCallback = "callback"
	TrackingOffer    = "offer"
)

// TrackingEvent is one passive recipient action, correlated to a
// ReminderAttempt purely by the opaque attempt id.
type TrackingEvent struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}
