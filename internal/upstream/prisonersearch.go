package upstream

import (
	"context"
	"net/url"
	"strconv"

	"cloud.google.com/go/civil"
)

const searchBatchSize = 1000

// PrisonerSearch queries the prisoner search index.
type PrisonerSearch struct {
	c *client
}

func NewPrisonerSearch(baseURL string, opts ...Option) *PrisonerSearch {
	return &PrisonerSearch{c: newClient("prisoner-search", baseURL, opts...)}
}

type prisonerNumbersRequest struct {
	PrisonerNumbers []string `json:"prisonerNumbers"`
}

// SearchByNomsIDs returns the records found for the given prison numbers.
// Numbers the index does not know are absent from the result.
func (s *PrisonerSearch) SearchByNomsIDs(ctx context.Context, nomsIDs []string) ([]Prisoner, error) {
	var out []Prisoner
	for _, batch := range chunks(nomsIDs, searchBatchSize) {
		var page []Prisoner
		if err := s.c.post(ctx, "/prisoner-search/prisoner-numbers", prisonerNumbersRequest{PrisonerNumbers: batch}, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

type releaseDateSearchRequest struct {
	EarliestReleaseDate civil.Date `json:"earliestReleaseDate"`
	LatestReleaseDate   civil.Date `json:"latestReleaseDate"`
	PrisonIDs           []string   `json:"prisonIds"`
}

type searchPage struct {
	Content []Prisoner `json:"content"`
	Last    bool       `json:"last"`
}

// SearchByReleaseDate pages through prisoners held in prisonCodes whose
// release date falls within [from, to].
func (s *PrisonerSearch) SearchByReleaseDate(ctx context.Context, prisonCodes []string, from, to civil.Date) ([]Prisoner, error) {
	req := releaseDateSearchRequest{EarliestReleaseDate: from, LatestReleaseDate: to, PrisonIDs: prisonCodes}
	var out []Prisoner
	for page := 0; ; page++ {
		q := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(searchBatchSize)}}
		var resp searchPage
		if err := s.c.post(ctx, "/prisoner-search/release-date-by-prison?"+q.Encode(), req, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Content...)
		if resp.Last || len(resp.Content) == 0 {
			return out, nil
		}
	}
}
