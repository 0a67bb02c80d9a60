package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"perp-trader/internal/domain"
)

type Kind string

const (
	KindTransient     Kind = "transient"
	KindGeoRestricted Kind = "geo_restricted"
	KindUnsupported   Kind = "unsupported"
)

// Error is the classified failure every adapter returns.
type Error struct {
	Provider   domain.ProviderID
	Capability domain.Capability
	Kind       Kind
	Status     int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Capability, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

var geoStatuses = map[int]bool{
	http.StatusUnauthorized:               true,
	http.StatusForbidden:                  true,
	http.StatusUnavailableForLegalReasons: true,
}

var geoPhrases = []string{
	"restricted location",
	"service unavailable",
	"not available in your country",
	"geographic restriction",
	"region not supported",
	"access denied",
	"forbidden",
	"eligibility",
	"compliance",
	"regulatory",
}

// LooksGeoRestricted applies the regional-blocking heuristics to a failed
// response.
func LooksGeoRestricted(status int, body string) bool {
	if geoStatuses[status] {
		return true
	}
	text := strings.ToLower(body)
	for _, phrase := range geoPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func IsGeoRestricted(err error) bool {
	return kindOf(err) == KindGeoRestricted
}

func IsUnsupported(err error) bool {
	return kindOf(err) == KindUnsupported
}

func kindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

func unsupported(id domain.ProviderID, capability domain.Capability) error {
	return &Error{Provider: id, Capability: capability, Kind: KindUnsupported}
}

func transient(id domain.ProviderID, capability domain.Capability, err error) error {
	return &Error{Provider: id, Capability: capability, Kind: KindTransient, Err: err}
}

// classify turns a transport or upstream failure into an *Error. Errors that
// are already classified pass through untouched.
func classify(id domain.ProviderID, capability domain.Capability, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return &Error{Provider: id, Capability: capability, Kind: KindGeoRestricted, Status: serr.Status, Err: err}
	}
	if LooksGeoRestricted(0, err.Error()) {
		return &Error{Provider: id, Capability: capability, Kind: KindGeoRestricted, Err: err}
	}
	return transient(id, capability, err)
}

// StatusError is produced by the shared transport for responses whose status
// signals regional blocking.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}
