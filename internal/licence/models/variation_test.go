package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "licences/pkg/domain-errors"
)

func TestNewVariation(t *testing.T) {
	src := withStatus(mustNew(CRD{}), StatusActive)
	src.LicenceActivatedDate = &t0
	src.BespokeConditions = []BespokeCondition{{ID: 77, Sequence: 1, Text: "keep away"}}

	v, err := NewVariation(src, testCom, t0)
	require.NoError(t, err)
	assert.Equal(t, KindVariation, v.Kind())
	assert.Equal(t, StatusVariationInProgress, v.Status())
	assert.Equal(t, "2.0", v.LicenceVersion)
	assert.Zero(t, v.ID)
	assert.Nil(t, v.LicenceActivatedDate)
	require.Len(t, v.BespokeConditions, 1)
	assert.Zero(t, v.BespokeConditions[0].ID)
	assert.Equal(t, int64(77), src.BespokeConditions[0].ID)

	id, ok := v.VariationOfID()
	assert.True(t, ok)
	assert.Equal(t, src.ID, id)

	hdc := withStatus(mustNew(HDC{}), StatusActive)
	hv, err := NewVariation(hdc, testCom, t0)
	require.NoError(t, err)
	assert.Equal(t, KindHDCVariation, hv.Kind())

	_, err = NewVariation(withStatus(mustNew(CRD{}), StatusApproved), testCom, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func TestNewVersion(t *testing.T) {
	src := withStatus(mustNew(CRD{}), StatusApproved)

	n, err := NewVersion(src, testCom, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, n.Status())
	assert.Equal(t, KindCRD, n.Kind())
	assert.Equal(t, "1.1", n.LicenceVersion)
	require.NotNil(t, n.VersionOfID)
	assert.Equal(t, src.ID, *n.VersionOfID)
	assert.Nil(t, n.ApprovedDate)

	_, err = NewVersion(withStatus(mustNew(CRD{}), StatusActive), testCom, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = NewVersion(withStatus(mustNew(HardStop{}), StatusSubmitted), testCom, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "hard stop edits stay with prison staff")
}
