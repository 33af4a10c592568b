package domain

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	created := time.Date(2026, 2, 10, 12, 30, 45, 123456789, time.UTC)
	cursor := &Cursor{LastCreatedAt: &created, LastID: "a2f1c9d0"}

	token := cursor.Encode()
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "a2f1c9d0", decoded.LastID)
	assert.True(t, created.Equal(*decoded.LastCreatedAt))
}

func TestCursor_EncodeZeroValues(t *testing.T) {
	var nilCursor *Cursor
	assert.Empty(t, nilCursor.Encode())
	assert.Empty(t, (&Cursor{}).Encode())
}

func TestDecodeCursor(t *testing.T) {
	tests := map[string]struct {
		token   string
		wantErr bool
		wantNil bool
	}{
		"empty token means first page": {
			token:   "",
			wantNil: true,
		},
		"not base64": {
			token:   "!!!not-base64!!!",
			wantErr: true,
		},
		"missing separator": {
			token:   base64.URLEncoding.EncodeToString([]byte("justonefield")),
			wantErr: true,
		},
		"empty id": {
			token:   base64.URLEncoding.EncodeToString([]byte("2026-02-10T12:00:00Z,")),
			wantErr: true,
		},
		"bad timestamp": {
			token:   base64.URLEncoding.EncodeToString([]byte("yesterday,abc")),
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeCursor(tc.token)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCursor)
				return
			}
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, decoded)
			}
		})
	}
}
