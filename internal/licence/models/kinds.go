package models

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Kind identifies the licence variant. It is fixed at creation.
type Kind string

const (
	KindCRD          Kind = "CRD"
	KindHDC          Kind = "HDC"
	KindHDCVariation Kind = "HDC_VARIATION"
	KindPRRD         Kind = "PRRD"
	KindVariation    Kind = "VARIATION"
	KindHardStop     Kind = "HARDSTOP"
	KindTimeServed   Kind = "TIME_SERVED"
)

func (k Kind) IsVariation() bool { return k == KindVariation || k == KindHDCVariation }

func (k Kind) IsHDC() bool { return k == KindHDC || k == KindHDCVariation }

// IsHardStopOriginated reports whether the licence was produced by the
// hard-stop fallback process and therefore needs a post-release review.
func (k Kind) IsHardStopOriginated() bool { return k == KindHardStop || k == KindTimeServed }

// CreatorKind is the kind of staff member who creates and submits licences of this kind.
func (k Kind) CreatorKind() StaffKind {
	if k == KindHardStop || k == KindPRRD {
		return StaffKindPrisonUser
	}
	return StaffKindCom
}

// ParseKind parses a stored kind code.
func ParseKind(code string) (Kind, error) {
	switch k := Kind(code); k {
	case KindCRD, KindHDC, KindHDCVariation, KindPRRD, KindVariation, KindHardStop, KindTimeServed:
		return k, nil
	default:
		return "", fmt.Errorf("unknown licence kind %q", code)
	}
}

// TypeCode is the supervision shape of a licence: licence period only,
// post-sentence supervision only, or both.
type TypeCode string

const (
	TypeAP    TypeCode = "AP"
	TypePSS   TypeCode = "PSS"
	TypeAPPSS TypeCode = "AP_PSS"
)

// DeriveTypeCode resolves the licence type from the licence expiry date and
// the top-up supervision expiry date.
func DeriveTypeCode(led, tused *civil.Date) TypeCode {
	switch {
	case led == nil:
		return TypePSS
	case tused != nil && tused.After(*led):
		return TypeAPPSS
	default:
		return TypeAP
	}
}

// HasAPPeriod reports whether the type includes a licence period.
func (t TypeCode) HasAPPeriod() bool { return t == TypeAP || t == TypeAPPSS }

// HasPSSPeriod reports whether the type includes post-sentence supervision.
func (t TypeCode) HasPSSPeriod() bool { return t == TypePSS || t == TypeAPPSS }
