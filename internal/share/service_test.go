package share

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/stretchr/testify/require"
)

func TestCreateAndResolve(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000/")
	ctx := context.Background()

	link, tok, err := svc.Create(ctx, "brd-1", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000/share/"+tok.ShareID, link)
	require.NotEmpty(t, tok.ID)

	got, err := svc.Resolve(ctx, tok.ShareID)
	require.NoError(t, err)
	require.Equal(t, "brd-1", got.BRDID)
}

func TestCreate_DistinctTokensForSameDocument(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000")
	ctx := context.Background()

	_, t1, err := svc.Create(ctx, "brd-1", "pw")
	require.NoError(t, err)
	_, t2, err := svc.Create(ctx, "brd-1", "pw")
	require.NoError(t, err)

	require.NotEqual(t, t1.ShareID, t2.ShareID)

	got1, err := svc.Resolve(ctx, t1.ShareID)
	require.NoError(t, err)
	got2, err := svc.Resolve(ctx, t2.ShareID)
	require.NoError(t, err)
	require.Equal(t, got1.BRDID, got2.BRDID)
}

func TestCreate_MissingFields(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000")
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "", "pw")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, _, err = svc.Create(ctx, "brd-1", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestResolve_Unknown(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000")

	_, err := svc.Resolve(context.Background(), "nope")
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = svc.Resolve(context.Background(), "  ")
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000")
	_, tok, err := svc.Create(context.Background(), "brd-1", "s3cret")
	require.NoError(t, err)

	b, err := json.Marshal(tok)
	require.NoError(t, err)
	require.False(t, strings.Contains(string(b), "passwordHash"))
	require.False(t, strings.Contains(string(b), "s3cret"))
}

func TestVerifyPassword(t *testing.T) {
	svc := NewService(NewMemoryRepository(), "http://localhost:3000")
	_, tok, err := svc.Create(context.Background(), "brd-1", "s3cret")
	require.NoError(t, err)

	require.True(t, svc.VerifyPassword(tok, "s3cret"))
	require.False(t, svc.VerifyPassword(tok, "wrong"))
}
