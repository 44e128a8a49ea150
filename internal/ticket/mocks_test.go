package ticket

import (
	"context"
	"log/slog"
	"sync"
)

// mockGateway is a programmable Gateway. Function fields override
// behavior per test; unset fields succeed with zero values. All posted
// messages and deleted channels are recorded for assertions.
type mockGateway struct {
	findCategoryFunc        func(guildID, name string) (string, bool)
	createCategoryFunc      func(guildID, name string) (string, error)
	createTicketChannelFunc func(guildID, name, categoryID, ownerID string) (string, error)
	deleteChannelFunc       func(channelID string) error
	renameChannelFunc       func(channelID, name string) error
	channelNameFunc         func(channelID string) (string, error)
	findChannelByNameFunc   func(guildID, name string) (string, bool)
	guildChannelsFunc       func(guildID string) ([]NamedChannel, error)
	grantAccessFunc         func(channelID, userID string) error
	revokeAccessFunc        func(channelID, userID string) error
	postNoticeFunc          func(channelID string, n Notice) error
	postRoleMentionFunc     func(channelID, roleID, text string) error

	mu              sync.Mutex
	seq             int // shared ordinal across notices and mentions
	createdChannels []string
	deletedChannels []string
	renames         map[string]string // channel ID -> latest name
	notices         []postedNotice
	mentions        []postedMention
}

type postedNotice struct {
	channelID string
	notice    Notice
	seq       int
}

type postedMention struct {
	channelID string
	roleID    string
	text      string
	seq       int
}

func newMockGateway() *mockGateway {
	return &mockGateway{renames: make(map[string]string)}
}

func (g *mockGateway) FindCategory(_ context.Context, guildID, name string) (string, bool) {
	if g.findCategoryFunc != nil {
		return g.findCategoryFunc(guildID, name)
	}
	return "category-1", true
}

func (g *mockGateway) CreateCategory(_ context.Context, guildID, name string) (string, error) {
	if g.createCategoryFunc != nil {
		return g.createCategoryFunc(guildID, name)
	}
	return "category-1", nil
}

func (g *mockGateway) CreateTicketChannel(_ context.Context, guildID, name, categoryID, ownerID string) (string, error) {
	if g.createTicketChannelFunc != nil {
		return g.createTicketChannelFunc(guildID, name, categoryID, ownerID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	channelID := "channel-" + name
	g.createdChannels = append(g.createdChannels, channelID)
	g.renames[channelID] = name
	return channelID, nil
}

func (g *mockGateway) DeleteChannel(_ context.Context, channelID string) error {
	if g.deleteChannelFunc != nil {
		return g.deleteChannelFunc(channelID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedChannels = append(g.deletedChannels, channelID)
	return nil
}

func (g *mockGateway) RenameChannel(_ context.Context, channelID, name string) error {
	if g.renameChannelFunc != nil {
		return g.renameChannelFunc(channelID, name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.renames[channelID] = name
	return nil
}

func (g *mockGateway) ChannelName(_ context.Context, channelID string) (string, error) {
	if g.channelNameFunc != nil {
		return g.channelNameFunc(channelID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if name, ok := g.renames[channelID]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

func (g *mockGateway) FindChannelByName(_ context.Context, guildID, name string) (string, bool) {
	if g.findChannelByNameFunc != nil {
		return g.findChannelByNameFunc(guildID, name)
	}
	return "", false
}

func (g *mockGateway) GuildChannels(_ context.Context, guildID string) ([]NamedChannel, error) {
	if g.guildChannelsFunc != nil {
		return g.guildChannelsFunc(guildID)
	}
	return nil, nil
}

func (g *mockGateway) GrantAccess(_ context.Context, channelID, userID string) error {
	if g.grantAccessFunc != nil {
		return g.grantAccessFunc(channelID, userID)
	}
	return nil
}

func (g *mockGateway) RevokeAccess(_ context.Context, channelID, userID string) error {
	if g.revokeAccessFunc != nil {
		return g.revokeAccessFunc(channelID, userID)
	}
	return nil
}

func (g *mockGateway) PostNotice(_ context.Context, channelID string, n Notice) error {
	if g.postNoticeFunc != nil {
		return g.postNoticeFunc(channelID, n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.notices = append(g.notices, postedNotice{channelID: channelID, notice: n, seq: g.seq})
	return nil
}

func (g *mockGateway) PostRoleMention(_ context.Context, channelID, roleID, text string) error {
	if g.postRoleMentionFunc != nil {
		return g.postRoleMentionFunc(channelID, roleID, text)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.mentions = append(g.mentions, postedMention{channelID: channelID, roleID: roleID, text: text, seq: g.seq})
	return nil
}

func (g *mockGateway) noticesFor(channelID string) []postedNotice {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []postedNotice
	for _, n := range g.notices {
		if n.channelID == channelID {
			out = append(out, n)
		}
	}
	return out
}

func (g *mockGateway) mentionsFor(channelID string) []postedMention {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []postedMention
	for _, m := range g.mentions {
		if m.channelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

func (g *mockGateway) deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deletedChannels...)
}

// logRecorder is a slog.Handler capturing log messages for assertions.
type logRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (*logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *logRecorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logRecorder) WithGroup(string) slog.Handler      { return h }

func (h *logRecorder) logged(message string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.messages {
		if m == message {
			return true
		}
	}
	return false
}

// mockRolePings is a fixed role mapping.
type mockRolePings struct {
	roles map[string]string // guildID + "/" + type -> role ID
}

func (m *mockRolePings) RolePing(guildID string, t Type) (string, bool) {
	roleID, ok := m.roles[guildID+"/"+string(t)]
	return roleID, ok
}
