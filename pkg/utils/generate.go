package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// GenerateBookingNumber creates a human readable booking reference.
// Format: BK-YYYYMMDD-HHMMSS-XXXXXXXX (UTC), suffix dari 4 byte pertama id
// supaya booking di detik yang sama tidak bentrok.
func GenerateBookingNumber(now time.Time, id uuid.UUID) string {
	now = now.UTC()
	return fmt.Sprintf("BK-%s-%s-%X", now.Format("20060102"), now.Format("150405"), id[:4])
}

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}

	return result
}
