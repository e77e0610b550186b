// Package records owns the client table: the fixed record schema, its
// normalization, the pure collection operations (search, reconcile, add,
// remove) and the Service that runs load, mutate, save and notify against
// the stored JSON document.
package records

import (
	"slices"
	"strings"
)

// Record is one brokerage client. Field order is the document order.
type Record struct {
	Name       string `json:"name"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	APIKey     string `json:"api_key"`
	APISecret  string `json:"api_secret"`
	TOTPSecret string `json:"totp_secret"`
	Lots       int    `json:"lots"`
	SL         int    `json:"sl"`
	Target     int    `json:"target"`
	Active     int    `json:"active"`
}

// Fields lists the schema keys in document order.
var Fields = []string{
	"name", "broker", "client_id", "mobile", "email", "password",
	"api_key", "api_secret", "totp_secret", "lots", "sl", "target", "active",
}

// DefaultBroker is the member unknown broker values are coerced to.
const DefaultBroker = "ANGEL"

// Brokers is the allowed broker set.
var Brokers = []string{DefaultBroker}

// NormalizeBroker trims and uppercases b and falls back to DefaultBroker
// when the result is not an allowed broker.
func NormalizeBroker(b string) string {
	b = strings.ToUpper(strings.TrimSpace(b))
	if slices.Contains(Brokers, b) {
		return b
	}
	return DefaultBroker
}

// Normalize returns r with broker coerced, active reduced to 0/1 and
// negative counters reset to 0.
func Normalize(r Record) Record {
	r.Broker = NormalizeBroker(r.Broker)
	if r.Active != 0 {
		r.Active = 1
	}
	r.Lots = max(r.Lots, 0)
	r.SL = max(r.SL, 0)
	r.Target = max(r.Target, 0)
	return r
}
