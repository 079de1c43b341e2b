package lead

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region assumed when normalizing numbers
// without a country code.
const DefaultPhoneRegion = "US"

// Assembler turns extracted candidates into Lead records.
type Assembler struct {
	clock  Clock
	idGen  IDGenerator
	region string
}

// NewAssembler constructs an Assembler. An empty region falls back to
// DefaultPhoneRegion.
func NewAssembler(clock Clock, idGen IDGenerator, region string) *Assembler {
	if region == "" {
		region = DefaultPhoneRegion
	}
	return &Assembler{clock: clock, idGen: idGen, region: region}
}

// Assemble builds one Lead per email. The name, company and phone of the
// i-th lead are the i-th entries of the corresponding candidate lists, when
// present. Nothing ties those entries to the email semantically.
func (a *Assembler) Assemble(c Candidates, target Target) ([]Lead, error) {
	if len(c.Emails) == 0 {
		return nil, nil
	}
	now := a.clock.Now()
	leads := make([]Lead, 0, len(c.Emails))
	for i, email := range c.Emails {
		id, err := a.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate lead id: %w", err)
		}
		phone := at(c.Phones, i)
		leads = append(leads, Lead{
			ID:         id,
			Email:      email,
			Name:       at(c.People, i),
			Company:    at(c.Organizations, i),
			Phone:      phone,
			PhoneE164:  a.normalizePhone(phone),
			Industry:   target.Industry,
			Location:   target.Location,
			SourceURL:  target.URL,
			SourceName: target.SourceName,
			ScrapedAt:  now,
			Verified:   false,
		})
	}
	return leads, nil
}

func (a *Assembler) normalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, a.region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
