package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 1 << 20

// Date accepts a calendar date ("2025-03-01") or an RFC 3339 timestamp. An
// omitted date is the zero time, which the ledger reads as today.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	d.Time = t.UTC()
	return nil
}

// decode reads a JSON body, rejecting unknown fields. An empty body decodes
// to the zero value so commands with only optional fields accept no body.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, err.Error())
		return false
	}
	return true
}

func required(errs []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, FieldError{Field: field, Message: "required"})
	}
	return errs
}
