package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"modbot/internal/adapters/discord"
	"modbot/internal/adapters/storage"
	"modbot/internal/core/domain"
	"modbot/internal/core/domain/command"
	"modbot/internal/core/domain/commands"
	"modbot/internal/core/service"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting modbot...")

	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("modbot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(viper.GetString("storage.path"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed opening storage")
	}
	defer db.Close()

	session, err := discordgo.New("Bot " + viper.GetString("discord.token"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing discord session")
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	guildID := viper.GetString("discord.guild_id")

	controllers, err := service.NewControllerList()
	if err != nil {
		log.Fatal().Err(err).Msg("failed loading controller list")
	}

	sender := discord.NewSender(session, controllers.IDs())
	roster := discord.NewRoster(session, guildID)
	effects := discord.NewEffects(session, guildID, map[string]string{
		domain.ActionWarning: viper.GetString("moderation.roles.warning"),
		domain.ActionMute:    viper.GetString("moderation.roles.mute"),
	})

	checkRate := viper.GetDuration("moderation.punishment_check_rate")
	if checkRate <= 0 {
		checkRate = 30 * time.Second
	}

	punisher := service.NewPunisher(storage.NewPunishmentStore(db), effects, checkRate)

	report := func(ctx context.Context, origin string, err error) {
		log.Error().Err(err).Str("origin", origin).Msg("handler failed")
		_ = sender.NotifyOperators(ctx, fmt.Sprintf("%s failed: %s", origin, err))
	}

	registry := &command.Registry{}
	triggers := &command.TriggerSet{}
	dispatcher := service.NewDispatcher(registry, triggers, roster, sender,
		viper.GetString("bot.prefix"), report)

	confirmTimeout := viper.GetDuration("moderation.confirm_timeout")
	if confirmTimeout <= 0 {
		confirmTimeout = 60 * time.Second
	}

	hooks := discord.NewHooks(session, punisher, effects, storage.NewPrefStore(db), sender,
		discord.HooksConfig{
			GuildID:        guildID,
			StaffChannelID: viper.GetString("moderation.staff_channel"),
			VoiceRole:      viper.GetString("moderation.roles.voice"),
			VCShownRole:    viper.GetString("moderation.roles.vc_shown"),
		})

	err = commands.RegisterAll(registry, triggers, &commands.Deps{
		Punisher:       punisher,
		Dispatcher:     dispatcher,
		Controllers:    controllers,
		Sender:         sender,
		Roster:         roster,
		Effects:        effects,
		Tags:           storage.NewTagStore(db),
		Prefs:          storage.NewPrefStore(db),
		Voice:          hooks,
		Prefix:         viper.GetString("bot.prefix"),
		LogChannelID:   viper.GetString("moderation.log_channel"),
		ConfirmTimeout: confirmTimeout,
		Durations: map[string]float64{
			domain.ActionWarning: viper.GetFloat64("moderation.warn_duration"),
			domain.ActionMute:    viper.GetFloat64("moderation.mute_duration"),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed registering commands")
	}

	var bus *service.EventBus
	bus = service.NewEventBus(func(event string) {
		discord.ShimInstaller(ctx, session, bus)(event)
	}, report)
	hooks.RegisterAll(bus)

	discord.NewMessageHandler(ctx, dispatcher).Register(session)

	if err := session.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed connecting to discord gateway")
	}
	defer session.Close()

	log.Info().Msg("modbot online, listening for commands")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}
