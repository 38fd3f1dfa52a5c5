package seed

import (
	"context"
	"strings"
	"testing"

	"idportal/internal/models"
	"idportal/internal/storage"
	"idportal/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset(strings.NewReader(`
name: station-drill
officers: 3
applications_per_officer: 4
approve_percent: 75
lost_id_percent: 10
stations: [Kisumu Central, Kakamega]
seed: 7
`))
	require.NoError(t, err)
	assert.Equal(t, "station-drill", p.Name)
	assert.Equal(t, 3, p.Officers)
	assert.Equal(t, 4, p.ApplicationsPerOfficer)
	assert.Equal(t, []string{"Kisumu Central", "Kakamega"}, p.Stations)
	assert.EqualValues(t, 7, p.Seed)
}

func TestParsePreset_Invalid(t *testing.T) {
	tests := map[string]string{
		"no officers":    "name: empty\nofficers: 0\n",
		"bad percentage": "name: x\nofficers: 1\napprove_percent: 140\n",
		"not yaml":       "officers: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePreset(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPreset_Builtin(t *testing.T) {
	for _, name := range PresetNames() {
		p, err := LoadPreset(strings.ToUpper(name))
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
	}
	_, err := LoadPreset("does-not-exist.yml")
	assert.Error(t, err)
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fs := afero.NewMemMapFs()
	s := NewSeeder(db, storage.NewLocalStoreFs(fs, "uploads"), 1000)

	preset := Preset{Name: "test", Officers: 2, ApplicationsPerOfficer: 3, ApprovePercent: 100, LostIDPercent: 100, Seed: 1}
	sum, err := s.Run(context.Background(), preset)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Officers: 2, Applications: 6, Approved: 6, LostIDs: 6}, sum)

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 2, count(&models.Officer{}))
	assert.EqualValues(t, 6, count(&models.Application{}))
	assert.EqualValues(t, 6, count(&models.LostIDApplication{}))
	assert.EqualValues(t, 6, count(&models.Payment{}))
	assert.EqualValues(t, 18, count(&models.Document{}))

	var pending int64
	require.NoError(t, db.Model(&models.Officer{}).Where("status = ?", models.OfficerStatusPending).Count(&pending).Error)
	assert.Zero(t, pending)

	require.NoError(t, s.ClearAll())
	assert.Zero(t, count(&models.Application{}))
	assert.Zero(t, count(&models.Officer{}))
}

func TestSeeder_RunWithoutApprovals(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, storage.NewLocalStoreFs(afero.NewMemMapFs(), "uploads"), 1000)

	sum, err := s.Run(context.Background(), Preset{Name: "drafts", Officers: 1, ApplicationsPerOfficer: 2, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Applications)
	assert.Zero(t, sum.Approved)
	assert.Zero(t, sum.LostIDs)
}
