package http

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/shared/id"
)

// Input limits
const (
	MaxAddressLength = 2048
	MaxNameLength    = 128
)

var errInvalid = errors.New("invalid request")

// validateString checks length and rejects NUL bytes
func validateString(value, field string, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%w: %s is required", errInvalid, field)
		}
		return nil
	}
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", errInvalid, field, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%w: %s contains invalid characters", errInvalid, field)
	}
	return nil
}

func validateFrameID(value, field string) (id.FrameID, error) {
	if err := validateString(value, field, MaxNameLength, true); err != nil {
		return "", err
	}
	if !id.IsValid(value, id.FramePrefix) {
		return "", fmt.Errorf("%w: %s is not a frame id", errInvalid, field)
	}
	return id.FrameID(value), nil
}

// validateAddress accepts absolute addresses only; the API has no base to
// resolve relative ones against
func validateAddress(value string) error {
	if err := validateString(value, "uri", MaxAddressLength, true); err != nil {
		return err
	}
	u, err := address.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: uri: %v", errInvalid, err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("%w: uri must be absolute", errInvalid)
	}
	return nil
}
