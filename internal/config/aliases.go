package config

import (
	"errors"

	"github.com/dshills/perch/internal/command"
)

// DefineAliases installs the configured aliases into t. Aliases that shadow
// a built-in command are installed and reported.
func (c Config) DefineAliases(t *command.AliasTable) []Warning {
	var warnings []Warning
	for _, name := range c.AliasNames() {
		err := t.Define(name, c.Aliases[name])
		if err == nil {
			continue
		}
		var shadow *command.ShadowWarning
		if errors.As(err, &shadow) {
			warnings = append(warnings, Warning{Source: "aliases", Key: name, Message: "shadows the built-in command"})
			continue
		}
		warnings = append(warnings, Warning{Source: "aliases", Key: name, Message: err.Error()})
	}
	return warnings
}
