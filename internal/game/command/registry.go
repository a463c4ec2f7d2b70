package command

import (
	"fmt"
	"slices"
	"strings"
)

// MinPrefix is the shortest abbreviation Resolve expands to a command name.
const MinPrefix = 3

// Registry resolves console input to commands by name, alias or unique
// abbreviation. Lookups are case-insensitive.
type Registry struct {
	byName  map[string]*Command
	byAlias map[string]*Command
	names   []string
}

// NewRegistry indexes cmds.
//
// Precondition: Every command has a Name and a Handler.
// Postcondition: Returns an error if a name or alias is empty or used twice,
// counting names and aliases together.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]*Command, len(cmds)),
		byAlias: make(map[string]*Command),
	}
	taken := func(key string) string {
		if c, ok := r.byName[key]; ok {
			return c.Name
		}
		if c, ok := r.byAlias[key]; ok {
			return c.Name
		}
		return ""
	}

	for i := range cmds {
		cmd := &cmds[i]
		name := strings.ToLower(cmd.Name)
		if name == "" || cmd.Handler == "" {
			return nil, fmt.Errorf("command %d: name and handler are required", i)
		}
		if owner := taken(name); owner != "" {
			return nil, fmt.Errorf("duplicate command name %q (already used by %q)", name, owner)
		}
		r.byName[name] = cmd
		r.names = append(r.names, name)

		for _, alias := range cmd.Aliases {
			alias = strings.ToLower(alias)
			if owner := taken(alias); owner != "" {
				return nil, fmt.Errorf("duplicate alias %q on %q (already used by %q)", alias, name, owner)
			}
			r.byAlias[alias] = cmd
		}
	}
	slices.Sort(r.names)
	return r, nil
}

// DefaultRegistry returns a Registry over BuiltinCommands. It panics if the
// built-in table is inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve finds the command for input: an exact name or alias first, then a
// name that input abbreviates, provided input has at least MinPrefix
// characters and abbreviates exactly one name.
func (r *Registry) Resolve(input string) (*Command, bool) {
	key := strings.ToLower(input)
	if cmd, ok := r.byName[key]; ok {
		return cmd, true
	}
	if cmd, ok := r.byAlias[key]; ok {
		return cmd, true
	}
	if len(key) < MinPrefix {
		return nil, false
	}
	matches := r.withPrefix(key)
	if len(matches) != 1 {
		return nil, false
	}
	return r.byName[matches[0]], true
}

// Suggest returns the command names input could have meant: the names it
// abbreviates, or failing that the names sharing its first two letters.
func (r *Registry) Suggest(input string) []string {
	key := strings.ToLower(input)
	if key == "" {
		return nil
	}
	if m := r.withPrefix(key); len(m) > 0 {
		return m
	}
	if len(key) >= 2 {
		return r.withPrefix(key[:2])
	}
	return nil
}

func (r *Registry) withPrefix(prefix string) []string {
	var out []string
	for _, name := range r.names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Commands returns all registered commands ordered by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// CommandsByCategory returns commands grouped by category, each group ordered by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	out := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		out[cmd.Category] = append(out[cmd.Category], cmd)
	}
	return out
}
