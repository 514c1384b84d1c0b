package fx

import (
	"github.com/slimalim5/mtg-project/internal/api"
	"github.com/slimalim5/mtg-project/internal/config"
	"github.com/slimalim5/mtg-project/internal/database"
	"github.com/slimalim5/mtg-project/internal/llm"
	"github.com/slimalim5/mtg-project/internal/logger"
	"github.com/slimalim5/mtg-project/internal/repository"
	"github.com/slimalim5/mtg-project/internal/server"
	"github.com/slimalim5/mtg-project/internal/service"

	"go.uber.org/fx"
)

func provideCardSource(c *api.ScryfallClient) service.CardSource { return c }

func provideAnswerer(s *llm.AnswerService) service.Answerer { return s }

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewTurnRepository),
	// external clients
	fx.Provide(api.NewScryfallClient),
	fx.Provide(llm.NewOpenAIClient),
	fx.Provide(llm.NewAnswerService),
	fx.Provide(provideCardSource),
	fx.Provide(provideAnswerer),
	// svc
	fx.Provide(service.NewGameService),
	// server
	fx.Provide(server.NewServer),
)
