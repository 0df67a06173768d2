package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"pending", StatusPending, true},
		{" Diagnosa ", StatusDiagnosa, true},
		{"process", StatusProsesPengerjaan, true},
		{"ready", StatusSiapDiambil, true},
		{"done", StatusSelesai, true},
		{"cancel", StatusBatal, true},
		{"lost", Status("lost"), false},
	}
	for _, tt := range tests {
		got, ok := CanonicalStatus(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestDescribeStatus(t *testing.T) {
	info := DescribeStatus("done")
	assert.Equal(t, StatusSelesai, info.Code)
	assert.Equal(t, "Selesai", info.Label)
	assert.True(t, info.Terminal)

	unknown := DescribeStatus("on_hold")
	assert.Equal(t, "on_hold", unknown.Label)
	assert.Equal(t, "gray", unknown.Color)
	assert.False(t, unknown.Terminal)
}

func TestStatusCatalogIsACopy(t *testing.T) {
	c := StatusCatalog()
	c[0].Label = "changed"
	assert.Equal(t, "Menunggu", StatusCatalog()[0].Label)
	assert.Len(t, c, 9)
}

func TestStatusVariants(t *testing.T) {
	assert.ElementsMatch(t, []string{"selesai", "done"}, StatusVariants(StatusSelesai))
	assert.Equal(t, []string{"diagnosa"}, StatusVariants(StatusDiagnosa))
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Status
		canReopen bool
		wantErr   error
	}{
		{"forward", StatusPending, StatusDiterima, false, nil},
		{"skip ahead", StatusDiterima, StatusSiapDiambil, false, nil},
		{"backward while open", StatusTesting, StatusProsesPengerjaan, false, nil},
		{"legacy target", StatusTesting, "ready", false, nil},
		{"close", StatusSiapDiambil, StatusSelesai, false, nil},
		{"cancel", StatusDiagnosa, StatusBatal, false, nil},
		{"same status", StatusDiagnosa, StatusDiagnosa, false, ErrSameStatus},
		{"same through alias", StatusSelesai, "done", true, ErrSameStatus},
		{"unknown target", StatusPending, "lost", false, ErrUnknownStatus},
		{"reopen denied", StatusSelesai, StatusProsesPengerjaan, false, ErrReopenDenied},
		{"reopen cancelled denied", StatusBatal, StatusPending, false, ErrReopenDenied},
		{"reopen allowed", StatusSelesai, StatusProsesPengerjaan, true, nil},
		{"legacy current terminal", "done", StatusTesting, false, ErrReopenDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to, tt.canReopen)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
