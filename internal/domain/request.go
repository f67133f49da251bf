package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ClimogramRequest asks for a climogram of Region over [StartYear, EndYear].
type ClimogramRequest struct {
	ID        string `json:"id"`
	Region    Region `json:"region"`
	StartYear int    `json:"start_year" validate:"gte=1,lte=9999"`
	EndYear   int    `json:"end_year" validate:"gte=1,lte=9999"`
}

// Key identifies the request inputs; equal keys produce equal climograms.
// The region enters through its ID and the digest of its vertices.
func (r ClimogramRequest) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", r.Region.ID, r.Region.Digest(), r.StartYear, r.EndYear)
}

// Validate checks field constraints and the year range ordering.
func (r ClimogramRequest) Validate() error {
	if r.Region.ID == "" {
		return fmt.Errorf("%w: region id is required", ErrInvalidRequest)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := YearRange(r.StartYear, r.EndYear); err != nil {
		return err
	}
	return nil
}

// ParseRequest decodes a request from a raw message. A request without an id
// takes the message key, or a fresh UUID when the key is empty too.
func ParseRequest(raw RawEvent) (ClimogramRequest, error) {
	var req ClimogramRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ClimogramRequest{}, fmt.Errorf("%w: parse climogram request: %v", ErrInvalidRequest, err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return ClimogramRequest{}, err
	}
	return req, nil
}
