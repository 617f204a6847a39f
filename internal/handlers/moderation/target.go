package moderation

import (
	"context"
	"fmt"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	rserrors "github.com/rottengram/rottenshield/internal/errors"
	"github.com/rottengram/rottenshield/internal/i18n"
	"github.com/rottengram/rottenshield/internal/policy/permissions"
	"github.com/rottengram/rottenshield/internal/resolver"
)

// resolveTarget picks the user a command is about: the author of the replied
// message, else a numeric ID, else a @username. It returns the arguments left over.
func (m *Moderation) resolveTarget(ctx context.Context, c *command, args []string) (*api.User, []string, error) {
	if reply := c.msg.ReplyToMessage; reply != nil && reply.From != nil {
		return reply.From, args, nil
	}
	if len(args) == 0 {
		return nil, nil, errors.Wrap(rserrors.ErrInvalidInput, "no target given")
	}

	arg, rest := args[0], args[1:]
	userID, ok := resolver.ParseUserID(arg)
	if !ok {
		var err error
		userID, err = m.GetService().GetResolver().ResolveUsername(ctx, resolver.Normalize(arg))
		if err != nil {
			return nil, nil, errors.Wrapf(rserrors.ErrUnresolved, "%s: %v", arg, err)
		}
	}

	member, err := m.GetService().GetPlatform().GetChatMember(ctx, c.chat.ID, userID)
	if err != nil || member.User == nil {
		return nil, nil, errors.Wrapf(rserrors.ErrNotFound, "user %d", userID)
	}
	return member.User, rest, nil
}

// targetOrNotify resolves the target and tells the issuer when that fails.
func (m *Moderation) targetOrNotify(ctx context.Context, c *command, args []string, usage string) (*api.User, []string, bool) {
	target, rest, err := m.resolveTarget(ctx, c, args)
	if err == nil {
		return target, rest, true
	}
	m.GetLogger().WithError(err).WithField("command", c.name).Debug("cant resolve target")
	switch {
	case errors.Is(err, rserrors.ErrUnresolved):
		m.notify(ctx, c, i18n.Get("❌ Could not find the user by username.", c.lang))
	case errors.Is(err, rserrors.ErrNotFound):
		m.notify(ctx, c, i18n.Get("❌ Could not find the user by ID.", c.lang))
	default:
		m.notify(ctx, c, usage)
	}
	return nil, nil, false
}

// requireAdmin checks the issuer is an administrator or the creator.
func (m *Moderation) requireAdmin(ctx context.Context, c *command) bool {
	member, err := m.GetService().GetPlatform().GetChatMember(ctx, c.chat.ID, c.issuer.ID)
	if err != nil {
		m.GetLogger().WithError(err).Warn("cant check issuer")
		m.notify(ctx, c, i18n.Get("❌ Error while checking permissions.", c.lang))
		return false
	}
	if !permissions.IsAdmin(&member) {
		m.notify(ctx, c, fmt.Sprintf(i18n.Get("❌ Only admins can use /%s.", c.lang), c.name))
		return false
	}
	return true
}

func (m *Moderation) requireOwner(ctx context.Context, c *command) bool {
	member, err := m.GetService().GetPlatform().GetChatMember(ctx, c.chat.ID, c.issuer.ID)
	if err != nil {
		m.GetLogger().WithError(err).Warn("cant check issuer")
		m.notifyKept(ctx, c, i18n.Get("❌ Error while checking permissions.", c.lang))
		return false
	}
	if !permissions.IsOwner(&member) {
		m.notifyKept(ctx, c, i18n.Get("❌ Only the group owner can use this command.", c.lang))
		return false
	}
	return true
}

// targetIsAdmin reports whether the target is staff, notifying the issuer with
// refusal in that case. Lookup failures are reported as "user not found".
func (m *Moderation) targetIsAdmin(ctx context.Context, c *command, target *api.User, refusal string) bool {
	member, err := m.GetService().GetPlatform().GetChatMember(ctx, c.chat.ID, target.ID)
	if err != nil {
		m.notify(ctx, c, i18n.Get("❌ User not found.", c.lang))
		return true
	}
	if permissions.IsAdmin(&member) {
		m.notify(ctx, c, refusal)
		return true
	}
	return false
}
