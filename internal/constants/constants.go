package constants

import "time"

// MSISDN normalization (Kenya).
const (
	CountryCallingCode = "254"
	SubscriberDigits   = 9 // digits after the country code
)

// Reconciliation business rules.
const (
	// Absolute tolerance when comparing a payment against the expected
	// rent, in cents. Covers provider transaction-fee slippage.
	AmountToleranceCents int64 = 100_000 // KES 1,000

	BusinessTimezone = "Africa/Nairobi"

	// Daraja C2B timestamp layout (yyyyMMddHHmmss).
	MpesaTimeLayout = "20060102150405"
)

// Daraja C2B result codes returned from the validation endpoint.
const (
	MpesaResultAccepted       = "0"
	MpesaResultRejectInvalid  = "C2B00012" // invalid account / unknown payer
	MpesaResultRejectAmount   = "C2B00013" // invalid amount
	MpesaResultDescAccepted   = "Accepted"
	MpesaResultDescRejected   = "Rejected"
)

// Scoring weights; must sum to 1.0.
const (
	WeightTimeliness  = 0.4
	WeightConsistency = 0.3
	WeightVolume      = 0.2
	WeightStability   = 0.1

	BaseComponentScore = 500
	MaxComponentScore  = 1000

	// Consistency needs a minimum series before interval dispersion
	// means anything.
	MinEventsForConsistency = 3

	// Cap on the average-days-late penalty so one catastrophic late
	// payment cannot zero the timeliness component.
	MaxLatenessPenalty = 200
)

// Job scheduling.
const (
	PendingRetryCronSpec      = "*/5 * * * *" // every 5 minutes
	ShortPendingRetryCronSpec = "* * * * *"   // every minute (test runs)
	OverdueSweepCronSpec      = "0 3 * * *"   // 03:00 UTC daily
	PendingRetryJobTimeout    = 5 * time.Minute
	OverdueSweepJobTimeout    = 10 * time.Minute
	MaxNotificationRetries    = 10
)
