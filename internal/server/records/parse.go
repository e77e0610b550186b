package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/clientadmin/internal/common"
)

// ParseRecord builds a Record from submitted form values keyed by the
// schema field names. client_id is kept verbatim since it is the match key
// for stored records. Counters must be integers in [0, MaxCount] (empty is 0);
// active accepts 0/1, true/false, yes/no and on/off, empty meaning 0.
func ParseRecord(values map[string]string) (Record, error) {
	r := Record{
		Name:       values["name"],
		Broker:     NormalizeBroker(values["broker"]),
		ClientID:   values["client_id"],
		Mobile:     values["mobile"],
		Email:      strings.TrimSpace(values["email"]),
		Password:   values["password"],
		APIKey:     values["api_key"],
		APISecret:  values["api_secret"],
		TOTPSecret: values["totp_secret"],
	}

	var err error
	if r.Lots, err = parseCount("lots", values["lots"]); err != nil {
		return Record{}, err
	}
	if r.SL, err = parseCount("sl", values["sl"]); err != nil {
		return Record{}, err
	}
	if r.Target, err = parseCount("target", values["target"]); err != nil {
		return Record{}, err
	}
	if r.Active, err = parseFlag("active", values["active"]); err != nil {
		return Record{}, err
	}

	return r, nil
}

// MaxCount is the largest lots/sl/target value. Stored values above it load
// as 0.
const MaxCount = math.MaxInt32

func parseCount(field, v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > MaxCount {
		return 0, fmt.Errorf("%w: %s must be an integer between 0 and %d, got %q", common.ErrValidation, field, MaxCount, v)
	}

	return n, nil
}

func parseFlag(field, v string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return 0, nil
	case "1", "true", "yes", "on":
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %s must be 0 or 1, got %q", common.ErrValidation, field, v)
}
