package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/tanakak-cyber/meo-sub000/internal/dto"
)

const defaultPhoneRegion = "JP"

var idnaProfile = idna.Lookup

// ValidationError indicates a request payload failed validation before any
// external call was made.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Message
}

// NormalizeShopPayload validates a shop payload in place: required fields,
// phone normalized to E.164, website hostname checked through IDNA.
func NormalizeShopPayload(payload *dto.ShopPayload, phoneRegion string) error {
	if payload == nil {
		return ValidationError{Message: "shop payload is required"}
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.GBPAccountID = strings.TrimSpace(payload.GBPAccountID)
	payload.GBPLocationID = strings.TrimSpace(payload.GBPLocationID)

	if payload.Name == "" {
		return ValidationError{Message: "name is required"}
	}
	if payload.GBPAccountID == "" || payload.GBPLocationID == "" {
		return ValidationError{Message: "gbp_account_id and gbp_location_id are required"}
	}

	if payload.Phone != nil {
		normalized, err := normalizePhone(*payload.Phone, phoneRegion)
		if err != nil {
			return ValidationError{Message: fmt.Sprintf("invalid phone number: %v", err)}
		}
		if normalized == "" {
			payload.Phone = nil
		} else {
			payload.Phone = &normalized
		}
	}

	if payload.Website != nil {
		normalized, err := normalizeWebsite(*payload.Website)
		if err != nil {
			return ValidationError{Message: fmt.Sprintf("invalid website: %v", err)}
		}
		if normalized == "" {
			payload.Website = nil
		} else {
			payload.Website = &normalized
		}
	}

	return nil
}

func normalizePhone(value, region string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}

	parsed, err := phonenumbers.Parse(value, region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("number %q is not valid for region %s", value, region)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func normalizeWebsite(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing hostname in %q", value)
	}

	host, err := idnaProfile.ToASCII(parsed.Hostname())
	if err != nil {
		return "", fmt.Errorf("invalid hostname %q: %v", parsed.Hostname(), err)
	}
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("hostname %q has no domain", host)
	}

	return parsed.String(), nil
}
