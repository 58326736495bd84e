package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"voicechef/agent/catalog"
	"voicechef/agent/chef"
	"voicechef/agent/contract"
	"voicechef/agent/driver"
	"voicechef/agent/session"
	"voicechef/agent/store"
	"voicechef/agent/tools"
	configx "voicechef/pkg/config"
	_ "voicechef/pkg/logger/autoload"
	openrouterx "voicechef/pkg/openrouter"
	"voicechef/server"
)

type AppConfig struct {
	MatchThreshold float64       `envconfig:"MATCH_THRESHOLD" default:"0.8"`
	MaxToolRounds  int           `envconfig:"MAX_TOOL_ROUNDS" default:"4"`
	AgentCacheTTL  time.Duration `envconfig:"AGENT_CACHE_TTL" default:"15m"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	if openrouterx.NewClient(*openRouterCfg) == nil {
		log.Fatal().Msg("openrouter api key is not configured")
	}
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("init chat model")
	}

	dbCfg := configx.MustNew[store.DBConfig]("DB")
	db, err := store.Open(ctx, *dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer func() { _ = db.Close() }()
	if err := store.InitSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("init schema")
	}

	orders := store.NewOrderStore(db)
	menu := store.NewMenuStore(db)
	settings := store.NewSettingStore(db)

	resolver := catalog.NewResolver(appCfg.MatchThreshold)
	gateway := tools.NewGateway(orders, menu, resolver)
	sessions := session.NewMemoryStore(session.WithTTL(appCfg.SessionTTL))

	chefs := chef.NewProvider(func(ctx context.Context, restaurantPhone string) (contract.Chef, error) {
		restaurant, err := menu.RestaurantByPhone(ctx, restaurantPhone)
		if err != nil {
			return nil, err
		}
		items, err := menu.ItemsByRestaurant(ctx, restaurant.ID)
		if err != nil {
			return nil, err
		}
		return chef.New(ctx, chatModel, restaurant, items)
	}, chef.WithTTL(appCfg.AgentCacheTTL))

	turns, err := driver.New(menu, orders, sessions, chefs, gateway, driver.Config{
		MaxToolRounds: appCfg.MaxToolRounds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init conversation driver")
	}

	serverCfg := configx.MustNew[server.Config]("SERVER")
	srv := server.New(turns, settings, *serverCfg)
	if err := srv.Run(ctx, *serverCfg); err != nil {
		log.Fatal().Err(err).Msg("webhook server stopped")
	}
	log.Info().Msg("shutdown complete")
}
