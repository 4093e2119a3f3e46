package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"modbot/internal/core/domain/command"
	"modbot/internal/core/port"

	"github.com/shirou/gopsutil/v3/process"
)

// UptimeCommand reports process uptime, resident memory and the number of
// commands processed since startup.
type UptimeCommand struct {
	sender    port.TextSender
	processed func() uint64
	prefix    string
}

func NewUptimeCommand(sender port.TextSender, processed func() uint64, prefix string) *UptimeCommand {
	return &UptimeCommand{sender: sender, processed: processed, prefix: prefix}
}

func (u *UptimeCommand) Register(reg *command.Registry) error {
	return reg.Register(&command.Descriptor{
		Name:    "uptime",
		Section: "general",
		Help:    fmt.Sprintf("%suptime\ndisplays bot uptime and usage stats.", u.prefix),
		Handler: u.handle,
	})
}

func (u *UptimeCommand) handle(ctx context.Context, inv *command.Invocation) error {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return err
	}

	createdMillis, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return err
	}
	uptime := time.Since(time.UnixMilli(createdMillis)).Round(time.Second)

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return err
	}

	return u.sender.SendReply(ctx, inv.Message, fmt.Sprintf(
		"uptime: %s\ncommands processed: %d\nmemory usage: %.1f MiB",
		uptime, u.processed(), float64(mem.RSS)/(1024*1024)))
}
