package plugin

import (
	"fmt"
	goplugin "plugin"

	"github.com/alnah/go-mdz/processor"
)

// EntryPoint is the symbol a Go plugin must export.
const EntryPoint = "Register"

func openGoPlugin(path string) (RegisterFunc, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plugin: %w", err)
	}
	sym, err := p.Lookup(EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEntryPoint, err)
	}
	return entryPoint(sym)
}

// entryPoint accepts an exported function or a variable holding one.
func entryPoint(sym any) (RegisterFunc, error) {
	switch fn := sym.(type) {
	case func(*processor.Registry) error:
		return fn, nil
	case *func(*processor.Registry) error:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has type %T", ErrBadEntryPoint, EntryPoint, sym)
}
