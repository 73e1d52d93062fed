package upstream

import (
	"context"
)

const prisonAPIBatchSize = 500

// PrisonAPI reads HDC decisions and booking flags from prison records.
type PrisonAPI struct {
	c *client
}

func NewPrisonAPI(baseURL string, opts ...Option) *PrisonAPI {
	return &PrisonAPI{c: newClient("prison-api", baseURL, opts...)}
}

// HDCStatuses returns the latest HDC decision for each booking that has one.
// Bookings with no HDC record are absent from the result.
func (p *PrisonAPI) HDCStatuses(ctx context.Context, bookingIDs []int64) ([]HDCStatus, error) {
	var out []HDCStatus
	for _, batch := range chunks(bookingIDs, prisonAPIBatchSize) {
		var page []HDCStatus
		if err := p.c.post(ctx, "/api/offender-sentences/home-detention-curfews/latest", batch, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

type is91Request struct {
	BookingIDs []int64 `json:"bookingIds"`
}

type is91Response struct {
	BookingIDs []int64 `json:"bookingIds"`
}

// IS91Bookings returns the subset of bookingIDs whose sentence is an
// immigration (IS91) detention or extradition.
func (p *PrisonAPI) IS91Bookings(ctx context.Context, bookingIDs []int64) ([]int64, error) {
	var out []int64
	for _, batch := range chunks(bookingIDs, prisonAPIBatchSize) {
		var resp is91Response
		if err := p.c.post(ctx, "/api/bookings/is91-or-extradition", is91Request{BookingIDs: batch}, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.BookingIDs...)
	}
	return out, nil
}
