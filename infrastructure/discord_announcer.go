package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"prizewheel/events"
	"prizewheel/observability"
)

const colorPrize = 0xF1C40F

// ChannelMessenger is the part of a discordgo session the announcer needs
type ChannelMessenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AnnouncementRecorder counts announcement attempts
type AnnouncementRecorder interface {
	RecordAnnouncement(sink, status string)
}

// DiscordAnnouncer posts granted claims to a Discord channel
type DiscordAnnouncer struct {
	session   ChannelMessenger
	channelID string
	recorder  AnnouncementRecorder
	closer    func() error
}

// NewDiscordAnnouncer opens a bot session for token
func NewDiscordAnnouncer(token, channelID string, recorder AnnouncementRecorder) (*DiscordAnnouncer, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	log.WithField("channelID", channelID).Info("Discord announcer connected")
	announcer := NewDiscordAnnouncerWithSession(dg, channelID, recorder)
	announcer.closer = dg.Close
	return announcer, nil
}

// NewDiscordAnnouncerWithSession creates an announcer over an existing session
func NewDiscordAnnouncerWithSession(session ChannelMessenger, channelID string, recorder AnnouncementRecorder) *DiscordAnnouncer {
	return &DiscordAnnouncer{
		session:   session,
		channelID: channelID,
		recorder:  recorder,
	}
}

// SubscribeTo announces every granted claim emitted on bus
func (a *DiscordAnnouncer) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(events.EventTypePrizeClaimed, a.Handle)
}

// Handle is an events.Handler for PrizeClaimedEvent
func (a *DiscordAnnouncer) Handle(ctx context.Context, event events.Event) {
	claimed, ok := event.(events.PrizeClaimedEvent)
	if !ok {
		return
	}

	_, err := a.session.ChannelMessageSendEmbed(a.channelID, BuildPrizeEmbed(claimed))
	if err != nil {
		a.record(observability.StatusFailed)
		log.WithFields(log.Fields{
			"identity": claimed.Identity,
			"error":    err,
		}).Error("Failed to announce prize on Discord")
		return
	}
	a.record(observability.StatusSent)
}

// Close closes the underlying Discord connection
func (a *DiscordAnnouncer) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

func (a *DiscordAnnouncer) record(status string) {
	if a.recorder != nil {
		a.recorder.RecordAnnouncement("discord", status)
	}
}

// BuildPrizeEmbed renders a claim for the announcement channel. The identity is masked.
func BuildPrizeEmbed(claimed events.PrizeClaimedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎡 We have a winner!",
		Description: fmt.Sprintf("**%s** just won **%s**", MaskIdentity(claimed.Identity), claimed.Prize),
		Color:       colorPrize,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Prize", Value: claimed.Prize, Inline: true},
			{Name: "Slot", Value: fmt.Sprintf("#%d", claimed.PrizeIndex+1), Inline: true},
		},
		Timestamp: claimed.ClaimedAt.Format(time.RFC3339),
	}
}

// MaskIdentity keeps the first letter of the local part and the domain
func MaskIdentity(identity string) string {
	local, domain, ok := strings.Cut(identity, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
