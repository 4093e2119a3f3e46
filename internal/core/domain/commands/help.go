package commands

import (
	"context"
	"fmt"
	"strings"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
)

// HelpCommand renders the command menu from registry metadata. Gated
// commands are hidden from members who would not pass the gate.
type HelpCommand struct {
	registry *command.Registry
	sender   port.TextSender
	prefix   string
}

func NewHelpCommand(registry *command.Registry, sender port.TextSender, prefix string) *HelpCommand {
	return &HelpCommand{registry: registry, sender: sender, prefix: prefix}
}

func (h *HelpCommand) Register(reg *command.Registry) error {
	return reg.Register(&command.Descriptor{
		Name:    "help",
		Aliases: []string{"h", "info", "cmds", "commands"},
		Section: "general",
		Help: fmt.Sprintf("%shelp [command/section]\ndisplays the command menu, "+
			"or the help text for one command or section.", h.prefix),
		WithContext: true,
		Handler:     h.handle,
	})
}

func (h *HelpCommand) handle(ctx context.Context, inv *command.Invocation) error {
	topic := strings.TrimSpace(strings.ToLower(inv.Raw))

	if topic != "" {
		if desc := h.registry.Lookup(topic); desc != nil {
			if !h.visible(desc, inv.Actor) {
				return h.notFound(ctx, inv.Message)
			}
			return h.sender.SendReply(ctx, inv.Message, desc.Help)
		}

		section := h.sectionMenu(topic, inv.Actor)
		if section == "" {
			return h.notFound(ctx, inv.Message)
		}
		return h.sender.SendReply(ctx, inv.Message, section)
	}

	menu := h.fullMenu(inv.Actor)

	// The full menu goes to PMs to keep channels clean.
	if err := h.sender.SendDirect(ctx, inv.Message.AuthorID, menu); err != nil {
		return h.sender.SendReply(ctx, inv.Message, "Please enable your PMs.")
	}
	if inv.Message.GuildID != "" {
		return h.sender.SendReply(ctx, inv.Message, "Check your PMs.")
	}

	return nil
}

func (h *HelpCommand) notFound(ctx context.Context, msg *domain.Message) error {
	return h.sender.SendReply(ctx, msg, "Command could not be found.")
}

func (h *HelpCommand) visible(desc *command.Descriptor, actor *domain.Member) bool {
	return desc.Gate == nil || (actor != nil && desc.Gate(actor))
}

func (h *HelpCommand) fullMenu(actor *domain.Member) string {
	var sb strings.Builder
	sb.WriteString("**commands**:\n")
	for _, section := range h.registry.Sections() {
		menu := h.sectionMenu(section, actor)
		if menu == "" {
			continue
		}
		sb.WriteString(menu)
	}
	return sb.String()
}

func (h *HelpCommand) sectionMenu(section string, actor *domain.Member) string {
	var sb strings.Builder
	any := false
	for _, desc := range h.registry.BySection(section) {
		if !h.visible(desc, actor) {
			continue
		}
		if !any {
			sb.WriteString(fmt.Sprintf("__%s__:\n", section))
			any = true
		}
		sb.WriteString(fmt.Sprintf("  *%s%s* - %s\n", h.prefix, desc.Name, summary(desc.Help)))
	}
	if !any {
		return ""
	}
	return sb.String()
}

// summary is the description line of a help text, after the usage line.
func summary(help string) string {
	_, desc, found := strings.Cut(help, "\n")
	if !found {
		return help
	}
	return strings.ReplaceAll(desc, "\n", " ")
}
