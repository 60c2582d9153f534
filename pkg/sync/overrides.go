package sync

import "github.com/arthur-debert/pgmirror/pkg/settings"

// Overrides carries connection parameters supplied on the command line.
// A nil field means "not supplied": it must not shadow the configured
// default, and an explicitly supplied empty string is still an override.
type Overrides struct {
	Host     *string
	Port     *int
	User     *string
	Password *string
}

// Merge applies the supplied overrides on top of configured settings and
// returns the effective connection parameters.
func (o Overrides) Merge(p settings.Postgres) settings.Postgres {
	if o.Host != nil {
		p.Host = *o.Host
	}
	if o.Port != nil {
		p.Port = *o.Port
	}
	if o.User != nil {
		p.User = *o.User
	}
	if o.Password != nil {
		p.Password = *o.Password
	}
	return p
}

// Fields returns the names of the parameters that are set, in a stable
// order. Used for diagnostics; values are never included.
func (o Overrides) Fields() []string {
	var fields []string
	if o.Host != nil {
		fields = append(fields, "host")
	}
	if o.Port != nil {
		fields = append(fields, "port")
	}
	if o.User != nil {
		fields = append(fields, "user")
	}
	if o.Password != nil {
		fields = append(fields, "password")
	}
	return fields
}

// Modes are the per-resource behavior flags.
type Modes struct {
	// Verbose turns on detailed diagnostics.
	Verbose bool

	// Validate runs document and database validation during construction.
	// Teardown runs must disable it: the schema may already be partially
	// or fully removed.
	Validate bool

	// ReplSlots additionally requires the replication slot to already
	// exist during validation. Bootstrap never sets it: it is the run
	// that creates the slot.
	ReplSlots bool
}
