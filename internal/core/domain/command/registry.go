package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"modbot/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// Handler runs a resolved command invocation.
type Handler func(ctx context.Context, inv *Invocation) error

// Validator parses raw argument text into the value handed to the handler.
// A false return means the input is malformed and the command's help text
// should be shown instead of invoking the handler.
type Validator func(raw string) (any, bool)

// Gate decides whether the acting member may run a command.
type Gate func(actor *domain.Member) bool

// Invocation is everything a handler gets about one command dispatch.
type Invocation struct {
	Command string
	Alias   string
	Args    any
	Raw     string
	Message *domain.Message
	Actor   *domain.Member
	Desc    *Descriptor
}

// Descriptor declares one command: its identity, aliases, argument contract,
// permission gate, and help text. Nil Validator passes raw text through
// unchanged; nil Gate allows everyone.
type Descriptor struct {
	Name        string
	Aliases     []string
	Validator   Validator
	Gate        Gate
	Section     string
	Help        string
	WithContext bool
	Handler     Handler
}

var aliasPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// Registry is the process-wide alias table. It is populated once during
// startup registration and read-only afterwards, so lookups need no locking.
type Registry struct {
	aliases map[string]*Descriptor
	ordered []*Descriptor
}

// Register validates and inserts a descriptor. Any error here is a
// misconfigured command table, which callers treat as fatal at startup.
func (r *Registry) Register(d *Descriptor) error {
	if r.aliases == nil {
		r.aliases = make(map[string]*Descriptor)
	}

	if d.Handler == nil {
		return fmt.Errorf("command %q has no handler", d.Name)
	}
	if strings.TrimSpace(d.Help) == "" {
		return fmt.Errorf("command %q has no help text", d.Name)
	}
	if d.Section == "" {
		d.Section = "general"
	}

	names := append([]string{d.Name}, d.Aliases...)
	for _, alias := range names {
		if !aliasPattern.MatchString(alias) {
			return fmt.Errorf("invalid alias %q for command %q: aliases must match [a-z0-9]+", alias, d.Name)
		}
		if existing, ok := r.aliases[alias]; ok {
			return fmt.Errorf("alias %q for command %q is already in use by command %q", alias, d.Name, existing.Name)
		}
	}

	log.Info().Str("command", d.Name).Strs("aliases", d.Aliases).Msg("adding command to registry")

	for _, alias := range names {
		r.aliases[alias] = d
	}
	r.ordered = append(r.ordered, d)

	return nil
}

// Lookup resolves an alias to its descriptor. Case-sensitive exact match;
// nil on miss, since unknown prefixed text is ordinary chat noise.
func (r *Registry) Lookup(alias string) *Descriptor {
	return r.aliases[alias]
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}

// BySection returns the section's descriptors in registration order.
func (r *Registry) BySection(section string) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.ordered {
		if d.Section == section {
			out = append(out, d)
		}
	}
	return out
}

// Sections lists section names in order of first registration.
func (r *Registry) Sections() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, d := range r.ordered {
		if _, ok := seen[d.Section]; !ok {
			seen[d.Section] = struct{}{}
			out = append(out, d.Section)
		}
	}
	return out
}

// ParseInvocation splits prefixed message text into the invoked alias and the
// trimmed raw argument string.
func ParseInvocation(text, prefix string) (alias, raw string) {
	text = strings.TrimPrefix(text, prefix)
	alias, raw, _ = strings.Cut(text, " ")
	return alias, strings.TrimSpace(raw)
}
