// SPDX-License-Identifier: MPL-2.0

package dns

import "fmt"

// Error codes reported by the registrar.
const (
	CodeUnknown            ErrorCode = "unknown"
	CodeNoToken            ErrorCode = "no_token"
	CodeNoDomain           ErrorCode = "no_domain"
	CodeNoContent          ErrorCode = "no_content"
	CodeNoType             ErrorCode = "no_type"
	CodeNoIP               ErrorCode = "no_ip"
	CodeBadDomain          ErrorCode = "bad_domain"
	CodeProhibited         ErrorCode = "prohibited"
	CodeBadToken           ErrorCode = "bad_token"
	CodeBadLogin           ErrorCode = "bad_login"
	CodeBadPassword        ErrorCode = "bad_password"
	CodeNoAuth             ErrorCode = "no_auth"
	CodeNotAllowed         ErrorCode = "not_allowed"
	CodeBlocked            ErrorCode = "blocked"
	CodeOccupied           ErrorCode = "occupied"
	CodeDomainLimitReached ErrorCode = "domain_limit_reached"
	CodeNoReply            ErrorCode = "no_reply"
)

var errorDescriptions = map[ErrorCode]string{
	CodeUnknown:            "unknown error",
	CodeNoToken:            "access token missing",
	CodeNoDomain:           "domain name missing",
	CodeNoContent:          "content missing",
	CodeNoType:             "type missing",
	CodeNoIP:               "IP address missing",
	CodeBadDomain:          "invalid domain name",
	CodeProhibited:         "domain name forbidden",
	CodeBadToken:           "invalid token",
	CodeBadLogin:           "invalid login",
	CodeBadPassword:        "invalid password",
	CodeNoAuth:             "authorization missing",
	CodeNotAllowed:         "access denied",
	CodeBlocked:            "domain name blocked",
	CodeOccupied:           "domain name occupied",
	CodeDomainLimitReached: "max number of domains exceeded",
	CodeNoReply:            "server access error",
}

type (
	// ErrorCode is the registrar's machine-readable error.
	ErrorCode string

	// APIError is a reply with success "error".
	APIError struct {
		Domain   string
		RecordID uint64
		Code     ErrorCode
	}
)

// Description returns the human-readable meaning of the code. Codes the
// registrar added later are reported as unknown.
func (c ErrorCode) Description() string {
	if d, ok := errorDescriptions[c]; ok {
		return d
	}
	return errorDescriptions[CodeUnknown] + " (" + string(c) + ")"
}

// IsAuth reports whether the code means the token was rejected or missing.
func (c ErrorCode) IsAuth() bool {
	switch c {
	case CodeNoToken, CodeBadToken, CodeBadLogin, CodeBadPassword, CodeNoAuth, CodeNotAllowed:
		return true
	default:
		return false
	}
}

func (e *APIError) Error() string {
	if e.RecordID != 0 {
		return fmt.Sprintf("registrar: %s (domain %s, record %d)", e.Code.Description(), e.Domain, e.RecordID)
	}
	if e.Domain != "" {
		return fmt.Sprintf("registrar: %s (domain %s)", e.Code.Description(), e.Domain)
	}
	return "registrar: " + e.Code.Description()
}
