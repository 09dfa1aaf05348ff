package middleware

import (
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
)

type AppMiddleware struct {
	conf      config.Config
	cacheRepo repositories.CacheRepository
}

func NewMiddleware(conf config.Config, cacheRepo repositories.CacheRepository) AppMiddleware {
	return AppMiddleware{
		conf:      conf,
		cacheRepo: cacheRepo,
	}
}
