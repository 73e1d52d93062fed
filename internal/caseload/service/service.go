// Package service builds caseloads: one CaseView per offender, merging
// persisted licences with prisoner records, HDC decisions and probation
// allocations. An offender whose prisoner record cannot be found is left out
// rather than failing the whole caseload.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	cmodels "licences/internal/caseload/models"
	"licences/internal/caseload/metrics"
	"licences/internal/caseload/ports"
	"licences/internal/caseload/tracer"
	licence "licences/internal/licence/models"
	"licences/internal/licence/store"
	"licences/internal/releasedates"
	"licences/internal/upstream"
	dErrors "licences/pkg/domain-errors"
	"licences/pkg/platform/sentinel"
	"licences/pkg/requestcontext"
)

// DefaultPrisonWindowDays is how far ahead CaseloadForPrisons looks for releases.
const DefaultPrisonWindowDays = 28

type Service struct {
	licences  ports.LicenceRepository
	prisoners ports.PrisonerSearch
	hdc       ports.HDCStatuses
	probation ports.Probation
	dates     *releasedates.Service

	window  int
	tracer  tracer.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPrisonWindow sets how many days ahead prison caseloads look for releases.
func WithPrisonWindow(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.window = days
		}
	}
}

func New(
	licences ports.LicenceRepository,
	prisoners ports.PrisonerSearch,
	hdc ports.HDCStatuses,
	probation ports.Probation,
	dates *releasedates.Service,
	opts ...Option,
) (*Service, error) {
	switch {
	case licences == nil:
		return nil, fmt.Errorf("licence repository is required")
	case prisoners == nil:
		return nil, fmt.Errorf("prisoner search is required")
	case hdc == nil:
		return nil, fmt.Errorf("HDC status client is required")
	case probation == nil:
		return nil, fmt.Errorf("probation client is required")
	case dates == nil:
		return nil, fmt.Errorf("release dates service is required")
	}
	s := &Service{
		licences:  licences,
		prisoners: prisoners,
		hdc:       hdc,
		probation: probation,
		dates:     dates,
		window:    DefaultPrisonWindowDays,
		tracer:    tracer.NewNoop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// CaseloadForStaff builds the caseload of one probation practitioner.
func (s *Service) CaseloadForStaff(ctx context.Context, staffIdentifier int64) ([]cmodels.CaseView, error) {
	if staffIdentifier <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "staff identifier is required")
	}
	offenders, err := s.allocations(ctx, func(ctx context.Context) ([]upstream.ManagedOffender, error) {
		return s.probation.ManagedOffendersForStaff(ctx, staffIdentifier)
	})
	if err != nil {
		return nil, err
	}
	return s.BuildCaseViews(ctx, offenders)
}

// CaseloadForTeams builds the combined caseload of the given probation teams.
func (s *Service) CaseloadForTeams(ctx context.Context, teamCodes []string) ([]cmodels.CaseView, error) {
	if len(teamCodes) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one team code is required")
	}
	offenders, err := s.allocations(ctx, func(ctx context.Context) ([]upstream.ManagedOffender, error) {
		return s.probation.ManagedOffendersForTeams(ctx, teamCodes)
	})
	if err != nil {
		return nil, err
	}
	return s.BuildCaseViews(ctx, offenders)
}

// CaseloadForPrisons builds the caseload of prisoners held in prisonCodes
// who are due for release within the prison window. Prisoners unknown to
// probation are shown as unallocated.
func (s *Service) CaseloadForPrisons(ctx context.Context, prisonCodes []string) ([]cmodels.CaseView, error) {
	if len(prisonCodes) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one prison code is required")
	}
	today := requestcontext.Today(ctx)
	to := today.AddDays(s.window)

	ctx, span := s.tracer.Start(ctx, tracer.SpanPrisoners, tracer.Int("prisons", len(prisonCodes)))
	prisoners, err := s.prisoners.SearchByReleaseDate(ctx, prisonCodes, today, to)
	span.End(err)
	if err != nil {
		return nil, translate(err, "search prisoners by release date")
	}
	if len(prisoners) == 0 {
		return []cmodels.CaseView{}, nil
	}

	nomsIDs := make([]string, 0, len(prisoners))
	known := make(map[string]upstream.Prisoner, len(prisoners))
	for _, p := range prisoners {
		nomsIDs = append(nomsIDs, p.PrisonerNumber)
		known[p.PrisonerNumber] = p
	}
	allocated, err := s.allocations(ctx, func(ctx context.Context) ([]upstream.ManagedOffender, error) {
		return s.probation.ManagedOffendersByNomsIDs(ctx, nomsIDs)
	})
	if err != nil {
		return nil, err
	}
	byNoms := make(map[string]upstream.ManagedOffender, len(allocated))
	for _, o := range allocated {
		byNoms[o.NomsID] = o
	}
	offenders := make([]upstream.ManagedOffender, 0, len(nomsIDs))
	for _, id := range nomsIDs {
		o, ok := byNoms[id]
		if !ok {
			o = upstream.ManagedOffender{NomsID: id, Staff: upstream.StaffDetail{Unallocated: true}}
		}
		offenders = append(offenders, o)
	}
	return s.build(ctx, offenders, known)
}

// BuildCaseViews resolves one CaseView per offender. Offenders without a
// prison number, or whose prisoner record is not found, are omitted.
func (s *Service) BuildCaseViews(ctx context.Context, offenders []upstream.ManagedOffender) ([]cmodels.CaseView, error) {
	return s.build(ctx, offenders, nil)
}

type facts struct {
	licences  map[string][]licence.Licence
	prisoners map[string]upstream.Prisoner
	hdc       map[int64]upstream.HDCStatus
}

func (s *Service) build(ctx context.Context, offenders []upstream.ManagedOffender, known map[string]upstream.Prisoner) (views []cmodels.CaseView, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanBuild, tracer.Int(tracer.AttrOffenders, len(offenders)))
	defer func() {
		span.SetAttributes(tracer.Int(tracer.AttrViews, len(views)))
		span.End(err)
		s.metrics.ObserveBuild(time.Since(start))
	}()

	nomsIDs := s.nomsIDs(offenders)
	if len(nomsIDs) == 0 {
		return []cmodels.CaseView{}, nil
	}
	f, err := s.gather(ctx, nomsIDs, known)
	if err != nil {
		return nil, err
	}

	today := requestcontext.Today(ctx)
	views = make([]cmodels.CaseView, 0, len(offenders))
	seen := mapset.NewThreadUnsafeSet[string]()
	omitted := 0
	for _, o := range offenders {
		if o.NomsID == "" || !seen.Add(o.NomsID) {
			continue
		}
		v, reason, ok := s.resolve(o, f, today)
		if !ok {
			omitted++
			s.metrics.IncOmitted(string(reason))
			s.logger.DebugContext(ctx, "offender omitted from caseload", "crn", o.CRN, "reason", reason)
			continue
		}
		s.metrics.IncView(string(v.LicenceStatus))
		views = append(views, v)
	}
	span.SetAttributes(tracer.Int(tracer.AttrOmitted, omitted))
	slices.SortFunc(views, compareViews)
	return views, nil
}

// nomsIDs returns the distinct prison numbers in offender order.
func (s *Service) nomsIDs(offenders []upstream.ManagedOffender) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(offenders))
	for _, o := range offenders {
		if o.NomsID == "" {
			s.metrics.IncOmitted("no_prison_number")
			continue
		}
		if seen.Add(o.NomsID) {
			out = append(out, o.NomsID)
		}
	}
	return out
}

// gather fetches licences and prisoner records in parallel, then the HDC
// decisions for the bookings found.
func (s *Service) gather(ctx context.Context, nomsIDs []string, known map[string]upstream.Prisoner) (facts, error) {
	f := facts{
		licences:  make(map[string][]licence.Licence),
		prisoners: make(map[string]upstream.Prisoner),
		hdc:       make(map[int64]upstream.HDCStatus),
	}

	var (
		ls        []licence.Licence
		prisoners []upstream.Prisoner
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ctx, span := s.tracer.Start(gctx, tracer.SpanLicences)
		var err error
		ls, err = s.licences.List(ctx, store.Filter{NomsIDs: nomsIDs})
		span.SetAttributes(tracer.Int(tracer.AttrFound, len(ls)))
		span.End(err)
		return translate(err, "list licences")
	})
	g.Go(func() error {
		missing := nomsIDs
		if known != nil {
			missing = nil
			for _, id := range nomsIDs {
				if _, ok := known[id]; !ok {
					missing = append(missing, id)
				}
			}
		}
		if len(missing) == 0 {
			return nil
		}
		ctx, span := s.tracer.Start(gctx, tracer.SpanPrisoners, tracer.Int(tracer.AttrOffenders, len(missing)))
		var err error
		prisoners, err = s.prisoners.SearchByNomsIDs(ctx, missing)
		span.SetAttributes(tracer.Int(tracer.AttrFound, len(prisoners)))
		span.End(err)
		return translate(err, "search prisoners")
	})
	if err := g.Wait(); err != nil {
		return facts{}, err
	}

	for _, l := range cmodels.RelevantLicences(ls) {
		f.licences[l.Offender.NomsID] = append(f.licences[l.Offender.NomsID], l)
	}
	for id, p := range known {
		f.prisoners[id] = p
	}
	for _, p := range prisoners {
		f.prisoners[p.PrisonerNumber] = p
	}

	bookings := make([]int64, 0, len(f.prisoners))
	for _, id := range nomsIDs {
		if p, ok := f.prisoners[id]; ok && p.BookingID != 0 && len(f.licences[id]) == 0 {
			bookings = append(bookings, p.BookingID)
		}
	}
	if len(bookings) == 0 {
		return f, nil
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanHDC, tracer.Int("bookings", len(bookings)))
	statuses, err := s.hdc.HDCStatuses(ctx, bookings)
	span.End(err)
	if err != nil {
		return facts{}, translate(err, "fetch HDC statuses")
	}
	for _, st := range statuses {
		f.hdc[st.BookingID] = st
	}
	return f, nil
}

// resolve builds the view for one offender, or returns the reason it is omitted.
func (s *Service) resolve(o upstream.ManagedOffender, f facts, today civil.Date) (cmodels.CaseView, cmodels.Reason, bool) {
	p, found := f.prisoners[o.NomsID]
	if !found {
		return cmodels.CaseView{}, "prisoner_not_found", false
	}
	v := cmodels.CaseView{
		NomsID:       o.NomsID,
		CRN:          cmp.Or(o.CRN, p.CRN),
		BookingID:    p.BookingID,
		Name:         p.Name(),
		PrisonCode:   p.PrisonID,
		Practitioner: practitioner(o.Staff),
	}

	if chosen, rest, ok := cmodels.SelectLicence(f.licences[o.NomsID]); ok {
		s.fromLicence(&v, p, chosen, rest)
		return v, "", true
	}

	var hdc *upstream.HDCStatus
	if st, ok := f.hdc[p.BookingID]; ok {
		hdc = &st
	}
	if reasons := cmodels.Ineligibility(p, hdc, today); len(reasons) > 0 {
		return cmodels.CaseView{}, reasons[0], false
	}
	s.synthesise(&v, p, today)
	return v, "", true
}

func (s *Service) fromLicence(v *cmodels.CaseView, p upstream.Prisoner, l licence.Licence, rest []licence.Licence) {
	id := l.ID
	v.LicenceID = &id
	v.LicenceKind = l.Kind()
	v.LicenceType = l.TypeCode
	v.LicenceStatus = l.Status()
	v.IsReviewNeeded = l.IsReviewNeeded()
	v.BookingID = cmp.Or(v.BookingID, l.Offender.BookingID)
	v.CRN = cmp.Or(v.CRN, l.Offender.CRN)

	d := l.Dates
	switch {
	case l.Kind().IsHDC() && p.HomeDetentionCurfewActualDate != nil:
		v.ReleaseDate, v.ReleaseDateLabel = p.HomeDetentionCurfewActualDate, cmodels.LabelHDCAD
	case l.Kind() == licence.KindPRRD && d.PostRecallReleaseDate != nil:
		v.ReleaseDate, v.ReleaseDateLabel = d.PostRecallReleaseDate, cmodels.LabelPostRecall
	case d.ActualReleaseDate != nil:
		v.ReleaseDate, v.ReleaseDateLabel = d.ActualReleaseDate, cmodels.LabelConfirmedRelease
	case d.ConditionalReleaseDate != nil:
		v.ReleaseDate, v.ReleaseDateLabel = d.ConditionalReleaseDate, cmodels.LabelCRD
	}
	v.LicenceStartDate = d.LicenceStartDate
	if d.LicenceStartDate != nil {
		hs := s.dates.HardStopDate(*d.LicenceStartDate)
		v.HardStopDate = &hs
	}
	for _, h := range rest {
		v.History = append(v.History, h.ID)
	}
}

// synthesise fills in the implied status and type for an offender with no licence.
func (s *Service) synthesise(v *cmodels.CaseView, p upstream.Prisoner, today civil.Date) {
	rel := cmodels.ResolveRelease(p)
	v.ReleaseDate, v.ReleaseDateLabel = rel.Date, rel.Label
	v.LicenceType = cmodels.LicenceType(p)

	if rel.OutOfScopeRecall {
		v.LicenceKind = licence.KindPRRD
		v.LicenceStatus = licence.StatusOOSRecall
		return
	}
	v.LicenceKind = licence.KindCRD
	v.LicenceStartDate = s.dates.LicenceStartDate(p.ConfirmedReleaseDate, p.ConditionalReleaseDate)
	if v.LicenceStartDate != nil {
		hs := s.dates.HardStopDate(*v.LicenceStartDate)
		v.HardStopDate = &hs
	}
	if s.dates.InHardStopPeriod(v.LicenceStartDate, today) {
		v.LicenceStatus = licence.StatusTimedOut
		return
	}
	v.LicenceStatus = licence.StatusNotStarted
}

func (s *Service) allocations(ctx context.Context, fetch func(ctx context.Context) ([]upstream.ManagedOffender, error)) ([]upstream.ManagedOffender, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAllocation)
	offenders, err := fetch(ctx)
	span.SetAttributes(tracer.Int(tracer.AttrFound, len(offenders)))
	span.End(err)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "fetch probation allocations")
	}
	return offenders, nil
}

func practitioner(s upstream.StaffDetail) cmodels.Practitioner {
	if s.Unallocated {
		return cmodels.Practitioner{StaffCode: s.Code, Name: cmodels.UnallocatedName, Unallocated: true}
	}
	return cmodels.Practitioner{
		StaffIdentifier: s.Identifier,
		StaffCode:       s.Code,
		Name:            s.Name(),
		Email:           s.Email,
	}
}

// compareViews orders by release date, undated last, then prison number.
func compareViews(a, b cmodels.CaseView) int {
	switch {
	case a.ReleaseDate == nil && b.ReleaseDate != nil:
		return 1
	case a.ReleaseDate != nil && b.ReleaseDate == nil:
		return -1
	case a.ReleaseDate != nil && b.ReleaseDate != nil && a.ReleaseDate.Before(*b.ReleaseDate):
		return -1
	case a.ReleaseDate != nil && b.ReleaseDate != nil && a.ReleaseDate.After(*b.ReleaseDate):
		return 1
	}
	return cmp.Compare(a.NomsID, b.NomsID)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("%s: upstream unavailable", op))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, op)
	}
}
