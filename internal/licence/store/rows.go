package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"licences/internal/licence/models"
)

// licenceRow mirrors the licence table. Kind payloads, owned conditions and
// staff references are stored as JSON documents next to the scalar columns.
type licenceRow struct {
	ID             int64  `db:"id"`
	Kind           string `db:"kind"`
	TypeCode       string `db:"type_code"`
	StatusCode     string `db:"status_code"`
	RowVersion     int64  `db:"row_version"`
	PolicyVersion  string `db:"policy_version"`
	LicenceVersion string `db:"licence_version"`

	NomsID      string       `db:"noms_id"`
	BookingID   int64        `db:"booking_id"`
	CRN         string       `db:"crn"`
	PNC         string       `db:"pnc"`
	CRO         string       `db:"cro"`
	Forename    string       `db:"forename"`
	MiddleNames string       `db:"middle_names"`
	Surname     string       `db:"surname"`
	DateOfBirth sql.NullTime `db:"date_of_birth"`

	PrisonCode        string `db:"prison_code"`
	PrisonDescription string `db:"prison_description"`
	PrisonTelephone   string `db:"prison_telephone"`

	ProbationAreaCode        string `db:"probation_area_code"`
	ProbationAreaDescription string `db:"probation_area_description"`
	ProbationPduCode         string `db:"probation_pdu_code"`
	ProbationPduDescription  string `db:"probation_pdu_description"`
	ProbationLauCode         string `db:"probation_lau_code"`
	ProbationLauDescription  string `db:"probation_lau_description"`
	ProbationTeamCode        string `db:"probation_team_code"`
	ProbationTeamDescription string `db:"probation_team_description"`

	AppointmentPerson    string       `db:"appointment_person"`
	AppointmentTime      sql.NullTime `db:"appointment_time"`
	AppointmentAddress   string       `db:"appointment_address"`
	AppointmentTelephone string       `db:"appointment_telephone"`

	ConditionalReleaseDate     sql.NullTime `db:"conditional_release_date"`
	ActualReleaseDate          sql.NullTime `db:"actual_release_date"`
	SentenceStartDate          sql.NullTime `db:"sentence_start_date"`
	SentenceEndDate            sql.NullTime `db:"sentence_end_date"`
	LicenceStartDate           sql.NullTime `db:"licence_start_date"`
	LicenceExpiryDate          sql.NullTime `db:"licence_expiry_date"`
	TopupSupervisionStartDate  sql.NullTime `db:"topup_supervision_start_date"`
	TopupSupervisionExpiryDate sql.NullTime `db:"topup_supervision_expiry_date"`
	PostRecallReleaseDate      sql.NullTime `db:"post_recall_release_date"`

	DateCreated          sql.NullTime `db:"date_created"`
	DateLastUpdated      sql.NullTime `db:"date_last_updated"`
	UpdatedByUsername    string       `db:"updated_by_username"`
	SubmittedDate        sql.NullTime `db:"submitted_date"`
	ApprovedDate         sql.NullTime `db:"approved_date"`
	ApprovedByUsername   string       `db:"approved_by_username"`
	ApprovedByName       string       `db:"approved_by_name"`
	SupersededDate       sql.NullTime `db:"superseded_date"`
	LicenceActivatedDate sql.NullTime `db:"licence_activated_date"`

	CreatedBy          []byte        `db:"created_by"`
	SubmittedBy        []byte        `db:"submitted_by"`
	ResponsibleCom     []byte        `db:"responsible_com"`
	ComStaffIdentifier sql.NullInt64 `db:"com_staff_identifier"`

	VersionOfID    sql.NullInt64 `db:"version_of_id"`
	VariationOfID  sql.NullInt64 `db:"variation_of_id"`
	SubstituteOfID sql.NullInt64 `db:"substitute_of_id"`
	ReviewDate     sql.NullTime  `db:"review_date"`

	Payload    []byte `db:"payload"`
	Conditions []byte `db:"conditions"`
}

// payloadDoc holds the kind-specific fields not promoted to columns.
type payloadDoc struct {
	Curfew             *models.Curfew                       `json:"curfew,omitempty"`
	MonitoringProvider *models.ElectronicMonitoringProvider `json:"monitoringProvider,omitempty"`
	SpoDiscussion      string                               `json:"spoDiscussion,omitempty"`
	VloDiscussion      string                               `json:"vloDiscussion,omitempty"`
}

type conditionsDoc struct {
	Standard   []models.StandardCondition   `json:"standard"`
	Additional []models.AdditionalCondition `json:"additional"`
	Bespoke    []models.BespokeCondition    `json:"bespoke"`
}

func nullDate(d *civil.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.In(time.UTC), Valid: true}
}

func datePtr(t sql.NullTime) *civil.Date {
	if !t.Valid {
		return nil
	}
	d := civil.DateOf(t.Time)
	return &d
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func marshalStaff(s *models.Staff) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func unmarshalStaff(b []byte) (*models.Staff, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s models.Staff
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func toRow(l models.Licence) (licenceRow, error) {
	r := licenceRow{
		ID:             l.ID,
		Kind:           string(l.Kind()),
		TypeCode:       string(l.TypeCode),
		StatusCode:     string(l.Status()),
		RowVersion:     l.RowVersion,
		PolicyVersion:  l.Version,
		LicenceVersion: l.LicenceVersion,

		NomsID:      l.Offender.NomsID,
		BookingID:   l.Offender.BookingID,
		CRN:         l.Offender.CRN,
		PNC:         l.Offender.PNC,
		CRO:         l.Offender.CRO,
		Forename:    l.Offender.Forename,
		MiddleNames: l.Offender.MiddleNames,
		Surname:     l.Offender.Surname,
		DateOfBirth: nullDate(l.Offender.DateOfBirth),

		PrisonCode:        l.Prison.Code,
		PrisonDescription: l.Prison.Description,
		PrisonTelephone:   l.Prison.Telephone,

		ProbationAreaCode:        l.Probation.AreaCode,
		ProbationAreaDescription: l.Probation.AreaDescription,
		ProbationPduCode:         l.Probation.PduCode,
		ProbationPduDescription:  l.Probation.PduDescription,
		ProbationLauCode:         l.Probation.LauCode,
		ProbationLauDescription:  l.Probation.LauDescription,
		ProbationTeamCode:        l.Probation.TeamCode,
		ProbationTeamDescription: l.Probation.TeamDescription,

		AppointmentPerson:    l.Appointment.Person,
		AppointmentTime:      nullTime(l.Appointment.Time),
		AppointmentAddress:   l.Appointment.Address,
		AppointmentTelephone: l.Appointment.Telephone,

		ConditionalReleaseDate:     nullDate(l.Dates.ConditionalReleaseDate),
		ActualReleaseDate:          nullDate(l.Dates.ActualReleaseDate),
		SentenceStartDate:          nullDate(l.Dates.SentenceStartDate),
		SentenceEndDate:            nullDate(l.Dates.SentenceEndDate),
		LicenceStartDate:           nullDate(l.Dates.LicenceStartDate),
		LicenceExpiryDate:          nullDate(l.Dates.LicenceExpiryDate),
		TopupSupervisionStartDate:  nullDate(l.Dates.TopupSupervisionStartDate),
		TopupSupervisionExpiryDate: nullDate(l.Dates.TopupSupervisionExpiryDate),
		PostRecallReleaseDate:      nullDate(l.Dates.PostRecallReleaseDate),

		DateCreated:          nullTime(l.DateCreated),
		DateLastUpdated:      nullTime(l.DateLastUpdated),
		UpdatedByUsername:    l.UpdatedByUsername,
		SubmittedDate:        nullTime(l.SubmittedDate),
		ApprovedDate:         nullTime(l.ApprovedDate),
		ApprovedByUsername:   l.ApprovedByUsername,
		ApprovedByName:       l.ApprovedByName,
		SupersededDate:       nullTime(l.SupersededDate),
		LicenceActivatedDate: nullTime(l.LicenceActivatedDate),

		VersionOfID: nullInt(l.VersionOfID),
	}
	if l.ResponsibleCom != nil {
		r.ComStaffIdentifier = sql.NullInt64{Int64: l.ResponsibleCom.StaffIdentifier, Valid: true}
	}

	var err error
	if r.CreatedBy, err = marshalStaff(l.CreatedBy); err != nil {
		return licenceRow{}, fmt.Errorf("encode created_by: %w", err)
	}
	if r.SubmittedBy, err = marshalStaff(l.SubmittedBy); err != nil {
		return licenceRow{}, fmt.Errorf("encode submitted_by: %w", err)
	}
	if r.ResponsibleCom, err = marshalStaff(l.ResponsibleCom); err != nil {
		return licenceRow{}, fmt.Errorf("encode responsible_com: %w", err)
	}

	var doc payloadDoc
	switch p := l.Payload().(type) {
	case models.HDC:
		doc.Curfew = &p.Curfew
		doc.MonitoringProvider = p.MonitoringProvider
	case models.HDCVariation:
		doc.Curfew = &p.Curfew
		doc.SpoDiscussion, doc.VloDiscussion = p.SpoDiscussion, p.VloDiscussion
		r.VariationOfID = sql.NullInt64{Int64: p.VariationOfID, Valid: true}
	case models.PRRD:
		doc.MonitoringProvider = p.MonitoringProvider
	case models.Variation:
		doc.SpoDiscussion, doc.VloDiscussion = p.SpoDiscussion, p.VloDiscussion
		r.VariationOfID = sql.NullInt64{Int64: p.VariationOfID, Valid: true}
	case models.HardStop:
		r.SubstituteOfID = nullInt(p.SubstituteOfID)
		r.ReviewDate = nullTime(p.ReviewDate)
	case models.TimeServed:
		r.SubstituteOfID = nullInt(p.SubstituteOfID)
		r.ReviewDate = nullTime(p.ReviewDate)
	}
	if r.Payload, err = json.Marshal(doc); err != nil {
		return licenceRow{}, fmt.Errorf("encode payload: %w", err)
	}

	conditions := conditionsDoc{
		Standard:   l.StandardConditions,
		Additional: l.AdditionalConditions,
		Bespoke:    l.BespokeConditions,
	}
	if r.Conditions, err = json.Marshal(conditions); err != nil {
		return licenceRow{}, fmt.Errorf("encode conditions: %w", err)
	}
	return r, nil
}

func (r licenceRow) toModel() (models.Licence, error) {
	kind, err := models.ParseKind(r.Kind)
	if err != nil {
		return models.Licence{}, err
	}
	status, err := models.ParseStatus(r.StatusCode)
	if err != nil {
		return models.Licence{}, err
	}

	var doc payloadDoc
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &doc); err != nil {
			return models.Licence{}, fmt.Errorf("decode payload of licence %d: %w", r.ID, err)
		}
	}
	var conditions conditionsDoc
	if len(r.Conditions) > 0 {
		if err := json.Unmarshal(r.Conditions, &conditions); err != nil {
			return models.Licence{}, fmt.Errorf("decode conditions of licence %d: %w", r.ID, err)
		}
	}

	base := models.Base{
		ID:             r.ID,
		TypeCode:       models.TypeCode(r.TypeCode),
		Version:        r.PolicyVersion,
		LicenceVersion: r.LicenceVersion,
		RowVersion:     r.RowVersion,
		Offender: models.Offender{
			NomsID:      r.NomsID,
			BookingID:   r.BookingID,
			CRN:         r.CRN,
			PNC:         r.PNC,
			CRO:         r.CRO,
			Forename:    r.Forename,
			MiddleNames: r.MiddleNames,
			Surname:     r.Surname,
			DateOfBirth: datePtr(r.DateOfBirth),
		},
		Dates: models.SentenceDates{
			ConditionalReleaseDate:     datePtr(r.ConditionalReleaseDate),
			ActualReleaseDate:          datePtr(r.ActualReleaseDate),
			SentenceStartDate:          datePtr(r.SentenceStartDate),
			SentenceEndDate:            datePtr(r.SentenceEndDate),
			LicenceStartDate:           datePtr(r.LicenceStartDate),
			LicenceExpiryDate:          datePtr(r.LicenceExpiryDate),
			TopupSupervisionStartDate:  datePtr(r.TopupSupervisionStartDate),
			TopupSupervisionExpiryDate: datePtr(r.TopupSupervisionExpiryDate),
			PostRecallReleaseDate:      datePtr(r.PostRecallReleaseDate),
		},
		Prison: models.Prison{Code: r.PrisonCode, Description: r.PrisonDescription, Telephone: r.PrisonTelephone},
		Probation: models.ProbationTeam{
			AreaCode: r.ProbationAreaCode, AreaDescription: r.ProbationAreaDescription,
			PduCode: r.ProbationPduCode, PduDescription: r.ProbationPduDescription,
			LauCode: r.ProbationLauCode, LauDescription: r.ProbationLauDescription,
			TeamCode: r.ProbationTeamCode, TeamDescription: r.ProbationTeamDescription,
		},
		Appointment: models.Appointment{
			Person:    r.AppointmentPerson,
			Time:      timePtr(r.AppointmentTime),
			Address:   r.AppointmentAddress,
			Telephone: r.AppointmentTelephone,
		},
		DateCreated:          timePtr(r.DateCreated),
		DateLastUpdated:      timePtr(r.DateLastUpdated),
		UpdatedByUsername:    r.UpdatedByUsername,
		SubmittedDate:        timePtr(r.SubmittedDate),
		ApprovedDate:         timePtr(r.ApprovedDate),
		ApprovedByUsername:   r.ApprovedByUsername,
		ApprovedByName:       r.ApprovedByName,
		SupersededDate:       timePtr(r.SupersededDate),
		LicenceActivatedDate: timePtr(r.LicenceActivatedDate),
		StandardConditions:   conditions.Standard,
		AdditionalConditions: conditions.Additional,
		BespokeConditions:    conditions.Bespoke,
		VersionOfID:          intPtr(r.VersionOfID),
	}
	if base.CreatedBy, err = unmarshalStaff(r.CreatedBy); err != nil {
		return models.Licence{}, fmt.Errorf("decode created_by of licence %d: %w", r.ID, err)
	}
	if base.SubmittedBy, err = unmarshalStaff(r.SubmittedBy); err != nil {
		return models.Licence{}, fmt.Errorf("decode submitted_by of licence %d: %w", r.ID, err)
	}
	if base.ResponsibleCom, err = unmarshalStaff(r.ResponsibleCom); err != nil {
		return models.Licence{}, fmt.Errorf("decode responsible_com of licence %d: %w", r.ID, err)
	}

	return models.Rehydrate(base, status, r.payloadFor(kind, doc))
}

func (r licenceRow) payloadFor(kind models.Kind, doc payloadDoc) models.Payload {
	curfew := models.Curfew{}
	if doc.Curfew != nil {
		curfew = *doc.Curfew
	}
	variation := models.VariationDetails{
		VariationOfID: r.VariationOfID.Int64,
		SpoDiscussion: doc.SpoDiscussion,
		VloDiscussion: doc.VloDiscussion,
	}
	review := models.Review{SubstituteOfID: intPtr(r.SubstituteOfID), ReviewDate: timePtr(r.ReviewDate)}

	switch kind {
	case models.KindHDC:
		return models.HDC{Curfew: curfew, MonitoringProvider: doc.MonitoringProvider}
	case models.KindHDCVariation:
		return models.HDCVariation{VariationDetails: variation, Curfew: curfew}
	case models.KindPRRD:
		return models.PRRD{MonitoringProvider: doc.MonitoringProvider}
	case models.KindVariation:
		return models.Variation{VariationDetails: variation}
	case models.KindHardStop:
		return models.HardStop{Review: review}
	case models.KindTimeServed:
		return models.TimeServed{Review: review}
	default:
		return models.CRD{}
	}
}

type eventRow struct {
	ID          int64     `db:"id"`
	LicenceID   int64     `db:"licence_id"`
	EventType   string    `db:"event_type"`
	Username    string    `db:"username"`
	FirstName   string    `db:"forenames"`
	LastName    string    `db:"surname"`
	Description string    `db:"event_description"`
	EventTime   time.Time `db:"event_time"`
}

func (r eventRow) toModel() models.LicenceEvent {
	return models.LicenceEvent{
		ID:          r.ID,
		LicenceID:   r.LicenceID,
		Type:        models.EventType(r.EventType),
		Username:    r.Username,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Description: r.Description,
		At:          r.EventTime,
	}
}
