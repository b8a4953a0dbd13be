package config

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

const schemaSrc = `
server: close({
	addr:    string & != ""
	workers: int & >0 & <=256
})
storage: close({
	root:     string & != ""
	database: string & != ""
})
vm: close({
	"memory-size": int & >0
})
run: close({
	"max-steps": int & >=0
	timeout:     string
})
log: close({
	verbosity: int & >=0 & <=5
	file:      string
})
`

// Validate checks c against the configuration schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + schemaSrc + "})")
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Run.Timeout != "" {
		d, err := time.ParseDuration(c.Run.Timeout)
		if err != nil {
			return fmt.Errorf("%w: run.timeout: %v", ErrInvalid, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: run.timeout must not be negative", ErrInvalid)
		}
	}
	return nil
}
