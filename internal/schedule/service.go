package schedule

import (
	"context"
	"time"

	"tornadocal/internal/ics"
	appLog "tornadocal/internal/log"
	"tornadocal/internal/model"
)

// FeedFetcher retrieves a raw ICS document. *ics.Fetcher implements it.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Service runs the ingestion pipeline: fetch, parse, normalize, classify.
// It holds no state between calls and is safe for concurrent use.
type Service struct {
	FeedURL    string
	Fetcher    FeedFetcher
	Normalizer *ics.Normalizer
	Teams      []Team

	// Now is used for FetchedAt; defaults to time.Now.
	Now func() time.Time
}

// NewService wires a Service for one feed and reference zone.
func NewService(feedURL string, fetcher FeedFetcher, ref *time.Location, teams []Team) *Service {
	if len(teams) == 0 {
		teams = DefaultTeams()
	}
	return &Service{
		FeedURL:    feedURL,
		Fetcher:    fetcher,
		Normalizer: ics.NewNormalizer(ref),
		Teams:      teams,
		Now:        time.Now,
	}
}

// GetEvents fetches the feed and builds a fresh Collection. It never
// fails: a fetch error is logged and yields an empty collection.
func (s *Service) GetEvents(ctx context.Context) model.Collection {
	now := s.now()

	body, err := s.Fetcher.Fetch(ctx, s.FeedURL)
	if err != nil {
		appLog.Error("calendar fetch failed; serving no events", err)
		coll := Classify(nil, s.Teams, s.Normalizer.Location())
		coll.FetchedAt = now
		return coll
	}

	events := ics.ParseEvents(body, s.Normalizer)
	coll := Classify(events, s.Teams, s.Normalizer.Location())
	coll.FetchedAt = now

	appLog.Info("calendar events built",
		"parsed", len(events),
		"dated", len(coll.AllEvents),
		"timezone", coll.Timezone,
	)
	return coll
}

// Today returns the current date in the reference zone.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.Normalizer.Location()))
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
