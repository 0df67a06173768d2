package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrensetiawan/form-service/models"
)

func TestActor(t *testing.T) {
	staff := Actor{UserID: uuid.New(), Email: "staff@example.com", Role: models.RoleStaff}
	assert.False(t, staff.IsPublic())
	assert.Equal(t, "staff@example.com", staff.Label())
	assert.True(t, staff.Can(models.CapDPDecide))
	assert.False(t, staff.Can(models.CapDPDelete))
	assert.True(t, staff.seesAll())

	tech := Actor{UserID: uuid.New(), Role: models.RoleTeknisi}
	assert.Equal(t, tech.UserID.String(), tech.Label())
	assert.False(t, tech.seesAll())

	assert.True(t, PublicActor.IsPublic())
	assert.False(t, PublicActor.Can(models.CapRequestRead))
}

func TestCanSee(t *testing.T) {
	sr := &models.ServiceRequest{AssignedTechnicians: []string{"tek@example.com"}}

	assert.True(t, canSee(Actor{Email: "tek@example.com", Role: models.RoleTeknisi}, sr))
	assert.False(t, canSee(Actor{Email: "other@example.com", Role: models.RoleTeknisi}, sr))
	assert.True(t, canSee(Actor{Email: "mgr@example.com", Role: models.RoleManager}, sr))
}

func TestNormalizeEmails(t *testing.T) {
	got := normalizeEmails([]string{" B@Example.com", "a@example.com", "b@example.com", "", "  "})
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got)
	assert.Empty(t, normalizeEmails(nil))
}

func TestValidationErrorsUnwrap(t *testing.T) {
	err := validation("one", "two")

	var verrs models.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, models.ValidationErrors{"one", "two"}, verrs)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{2, 25, 2, 25},
		{-3, 5000, 1, 200},
	}
	for _, tt := range tests {
		page, limit := pagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestParseOptionalUUID(t *testing.T) {
	id, err := parseOptionalUUID(nil)
	require.NoError(t, err)
	assert.Nil(t, id)

	blank := " "
	id, err = parseOptionalUUID(&blank)
	require.NoError(t, err)
	assert.Nil(t, id)

	raw := uuid.NewString()
	id, err = parseOptionalUUID(&raw)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, raw, id.String())

	bad := "not-a-uuid"
	_, err = parseOptionalUUID(&bad)
	assert.Error(t, err)
}

func TestOptionalKey(t *testing.T) {
	assert.Nil(t, optionalKey(""))
	assert.Nil(t, optionalKey("   "))
	require.NotNil(t, optionalKey(" k1 "))
	assert.Equal(t, "k1", *optionalKey(" k1 "))
}

func TestCountingReader(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		c := &countingReader{r: strings.NewReader("hello"), limit: 10}
		b, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
		assert.EqualValues(t, 5, c.n)
		assert.False(t, c.exceeded)
	})

	t.Run("over limit", func(t *testing.T) {
		c := &countingReader{r: bytes.NewReader(make([]byte, 64)), limit: 16}
		_, err := io.ReadAll(c)
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.True(t, c.exceeded)
	})

	t.Run("no limit", func(t *testing.T) {
		c := &countingReader{r: bytes.NewReader(make([]byte, 64))}
		_, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.EqualValues(t, 64, c.n)
	})
}

func TestAllowedContentType(t *testing.T) {
	assert.True(t, allowedContentType("image/png"))
	assert.True(t, allowedContentType("application/pdf"))
	assert.False(t, allowedContentType("text/html; charset=utf-8"))
	assert.False(t, allowedContentType("application/zip"))
}

type recordingStore struct {
	put     []string
	deleted []string
	putErr  error
}

func (s *recordingStore) Put(ctx context.Context, publicID string, r io.Reader, contentType string) (string, error) {
	s.put = append(s.put, publicID)
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	if s.putErr != nil {
		return "", s.putErr
	}
	return "https://cdn.example.com/" + publicID, nil
}

func (s *recordingStore) Delete(ctx context.Context, publicID string) error {
	s.deleted = append(s.deleted, publicID)
	return nil
}

func TestUploadRemovesObjectWhenPutFails(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	tests := []struct {
		name    string
		putErr  error
		wantErr error
	}{
		{"over limit", nil, ErrFileTooLarge},
		{"backend failure", assert.AnError, assert.AnError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{putErr: tt.putErr}
			limit := int64(16)
			if tt.putErr != nil {
				limit = 1 << 20
			}
			svc := NewMediaService(nil, store, limit)

			asset, err := svc.Upload(context.Background(), PublicActor, "dp", "bukti.png", bytes.NewReader(png))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, asset)
			require.Len(t, store.put, 1)
			assert.Equal(t, store.put, store.deleted)
		})
	}
}
