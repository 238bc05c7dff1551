package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which side columns are hidden.
	LayoutCompactWidth = 100

	// ModalMaxWidth caps overlay width on wide terminals.
	ModalMaxWidth = 96
)

// Display limits.
const (
	// ActivityLines is how many log lines the activity view keeps.
	ActivityLines = 400

	// MaxToasts is how many notifications are shown at once.
	MaxToasts = 3
)

// Timing constants.
const (
	// ToastDuration is how long a notification stays visible.
	ToastDuration = 4 * time.Second

	// DefaultUIInterval is the refresh tick for toasts and the activity view.
	DefaultUIInterval = time.Second
)
