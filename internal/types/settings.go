package types

// Settings is a snapshot of runtime variables, grouped by class. A name that is
// absent from a map is "not carried" by the snapshot, which is different from
// carrying a zero value.
type Settings struct {
	Flags     map[string]bool   `json:"flags,omitempty" yaml:"flags" dynamodbav:"flags" mapstructure:"flags"`
	Ints      map[string]int64  `json:"ints,omitempty" yaml:"ints" dynamodbav:"ints" mapstructure:"ints"`
	Strings   map[string]string `json:"strings,omitempty" yaml:"strings" dynamodbav:"strings" mapstructure:"strings"`
	LogLevels map[string]int    `json:"log_levels,omitempty" yaml:"log_levels" dynamodbav:"log_levels" mapstructure:"log_levels"`
}

func NewSettings() Settings {
	return Settings{
		Flags:     map[string]bool{},
		Ints:      map[string]int64{},
		Strings:   map[string]string{},
		LogLevels: map[string]int{},
	}
}

// Clone returns a deep copy; nil maps become empty maps.
func (s Settings) Clone() Settings {
	out := NewSettings()
	for k, v := range s.Flags {
		out.Flags[k] = v
	}
	for k, v := range s.Ints {
		out.Ints[k] = v
	}
	for k, v := range s.Strings {
		out.Strings[k] = v
	}
	for k, v := range s.LogLevels {
		out.LogLevels[k] = v
	}
	return out
}
