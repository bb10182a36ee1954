package search

import (
	"context"

	"github.com/rs/zerolog"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	primary  Backend
	fallback Backend
	indexer  *Meili
	logger   zerolog.Logger
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS, logger zerolog.Logger) *Service {
	s := &Service{indexer: meili, logger: logger.With().Str("component", "search").Logger()}
	if meili != nil {
		s.primary = meili
	}
	if pgfts != nil {
		s.fallback = pgfts
	}
	return s
}

// Search tries the primary backend if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(ctx context.Context, q Query) Response {
	q = q.normalized()
	if s.primary != nil && s.primary.Healthy() {
		results, total, err := s.primary.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		s.logger.Warn().Err(err).Msg("meilisearch error, falling back to pgfts")
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text, Backend: "none"}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("pgfts error")
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Backend: "pgfts"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "pgfts"}
}

// IndexIdea indexes an idea (fire-and-forget to Meilisearch).
func (s *Service) IndexIdea(record IdeaRecord) {
	if s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.IndexIdea(record); err != nil {
			s.logger.Warn().Err(err).Str("idea_id", record.ID).Msg("index idea")
		}
	}()
}

// DeleteIdea removes an idea from the search index (fire-and-forget).
func (s *Service) DeleteIdea(id string) {
	if s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.DeleteIdea(id); err != nil {
			s.logger.Warn().Err(err).Str("idea_id", id).Msg("delete idea")
		}
	}()
}

// IndexIdeas indexes a batch of ideas (fire-and-forget).
func (s *Service) IndexIdeas(records []IdeaRecord) {
	if len(records) == 0 || s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.IndexIdeas(records); err != nil {
			s.logger.Warn().Err(err).Int("ideas", len(records)).Msg("index ideas")
		}
	}()
}

// DeleteIdeas removes a batch of ideas from the search index (fire-and-forget).
func (s *Service) DeleteIdeas(ids []string) {
	if len(ids) == 0 || s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.DeleteIdeas(ids); err != nil {
			s.logger.Warn().Err(err).Int("ideas", len(ids)).Msg("delete ideas")
		}
	}()
}

// ReindexAllFromPG reads every idea from PostgreSQL and pushes them to Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	pgfts, ok := s.fallback.(*PgFTS)
	if s.indexer == nil || !s.indexer.Healthy() || !ok {
		return
	}
	records, err := pgfts.LoadAllRecords(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reindex load failed")
		return
	}
	if err := s.indexer.IndexIdeas(records); err != nil {
		s.logger.Error().Err(err).Msg("reindex ideas")
		return
	}
	s.logger.Info().Int("ideas", len(records)).Msg("search index rebuilt")
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
