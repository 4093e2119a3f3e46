package commands

import (
	"context"
	"fmt"
	"strings"

	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"
)

// TagCommand stores named text snippets. Anyone can create a tag; only the
// owner or a member with manage-messages can edit or delete one.
type TagCommand struct {
	tags   port.TagStore
	sender port.TextSender
	prefix string
}

func NewTagCommand(tags port.TagStore, sender port.TextSender, prefix string) *TagCommand {
	return &TagCommand{tags: tags, sender: sender, prefix: prefix}
}

func (t *TagCommand) Register(reg *command.Registry) error {
	return reg.Register(&command.Descriptor{
		Name:    "tag",
		Aliases: []string{"t", "tags"},
		Section: "general",
		Help: fmt.Sprintf("%stag <name> [content/delete]\nrecalls the named tag, "+
			"or sets, updates or deletes it.", t.prefix),
		WithContext: true,
		Handler:     t.handle,
	})
}

func (t *TagCommand) handle(ctx context.Context, inv *command.Invocation) error {
	name, content, _ := strings.Cut(strings.TrimSpace(inv.Raw), " ")
	name = strings.ToLower(name)
	content = strings.TrimSpace(content)

	if name == "" {
		names, err := t.tags.List(ctx)
		if err != nil {
			return err
		}
		return t.sender.SendReply(ctx, inv.Message,
			inv.Desc.Help+"\n\nTags: "+strings.Join(names, ", "))
	}

	existing, err := t.tags.Get(ctx, name)
	if err != nil {
		return err
	}
	canManage := existing != nil &&
		(existing.OwnerID == inv.Actor.ID || inv.Actor.Has(domain.PermManageMessages))

	switch {
	case content == "delete":
		if existing == nil {
			return t.sender.SendReply(ctx, inv.Message, "Tag could not be found.")
		}
		if !canManage {
			return t.sender.SendReply(ctx, inv.Message, "You're not allowed to delete this tag.")
		}
		if err := t.tags.Delete(ctx, name); err != nil {
			return err
		}
		return t.sender.SendReply(ctx, inv.Message, "Deleted tag: "+name)

	case content != "":
		if existing == nil {
			err := t.tags.Set(ctx, &port.Tag{Name: name, Content: content, OwnerID: inv.Actor.ID})
			if err != nil {
				return err
			}
			return t.sender.SendReply(ctx, inv.Message, "Added tag: "+name)
		}
		if !canManage {
			return t.sender.SendReply(ctx, inv.Message, "You're not allowed to edit this tag.")
		}
		existing.Content = content
		if err := t.tags.Set(ctx, existing); err != nil {
			return err
		}
		return t.sender.SendReply(ctx, inv.Message, "Updated tag: "+name)

	default:
		if existing == nil {
			return t.sender.SendReply(ctx, inv.Message, "Tag could not be found.")
		}
		return t.sender.SendReply(ctx, inv.Message, existing.Content)
	}
}
