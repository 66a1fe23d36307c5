package bungie

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the API error kinds callers branch on.
var (
	// ErrAPIResponseMissing means the envelope reported success but carried
	// no Response field. Some callers treat this as "no data" rather than a
	// failure; the typed operations that do so return nil instead.
	ErrAPIResponseMissing = errors.New("bungie api returned no response data")

	// ErrBungieNameNotFound means a player search came back empty.
	ErrBungieNameNotFound = errors.New("no player found for bungie name")

	ErrDestinyUnavailable  = errors.New("the destiny api is currently unavailable")
	ErrParameterParse      = errors.New("the destiny api could not parse the request parameters")
	ErrInvalidParameters   = errors.New("the destiny api rejected the request parameters")
	ErrPrivacy             = errors.New("the requested profile is private")
	ErrAPIKeyMissing       = errors.New("the destiny api did not receive an api key")
)

// APIStatusError is returned when the envelope reports a non success code
// that has no dedicated sentinel. It carries the status triple so callers
// can log exactly what the upstream said.
type APIStatusError struct {
	ErrorCode   int
	ErrorStatus string
	Message     string
}

func (err *APIStatusError) Error() string {
	return fmt.Sprintf("bungie api status %d (%s): %s", err.ErrorCode, err.ErrorStatus, err.Message)
}

// checkEnvelope maps the uniform envelope onto the error taxonomy. A nil
// return means ErrorCode was the success value; the caller is still
// responsible for deciding what a missing Response payload means.
func checkEnvelope(base *BaseResponse) error {
	if base == nil {
		return errors.New("bungie api response envelope was missing")
	}

	switch base.ErrorCode {
	case errorCodeSuccess:
		return nil
	case errorCodeUnavailable:
		return ErrDestinyUnavailable
	case errorCodeParameterParse:
		return ErrParameterParse
	case errorCodeInvalidParameters:
		return ErrInvalidParameters
	case errorCodePrivacy:
		return ErrPrivacy
	case errorCodeAPIKeyMissing:
		return ErrAPIKeyMissing
	}

	return &APIStatusError{
		ErrorCode:   base.ErrorCode,
		ErrorStatus: base.ErrorStatus,
		Message:     base.Message,
	}
}
