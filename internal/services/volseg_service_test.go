package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molvis-backend/internal/repository"
	"molvis-backend/internal/storage"
)

type volsegFixture struct {
	repo    *repository.MemoryVolsegRepository
	store   *storage.LocalStorage
	service *VolsegService
}

func newVolsegFixture(t *testing.T) *volsegFixture {
	t.Helper()
	repo := repository.NewMemoryVolsegRepository()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &volsegFixture{
		repo:    repo,
		store:   store,
		service: NewVolsegService(repo, store, testLogger()),
	}
}

func TestVolsegCreateAndGetFile(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"volume.lattice": "lattice-bytes"})
	entry, err := f.service.Create(ctx, owner, "Ribosome", false, "ribosome.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Ribosome", entry.Name)
	assert.False(t, entry.IsPublic)

	data, err := f.service.GetFile(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestVolsegAccessControl(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	other := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"volume.lattice": "x"})
	private, err := f.service.Create(ctx, owner, "private", false, "a.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)
	public, err := f.service.Create(ctx, owner, "public", true, "b.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, other, private.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.Get(ctx, nil, private.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := f.service.Get(ctx, nil, public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	_, err = f.service.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVolsegListPublicAndMine(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	other := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"volume.lattice": "x"})
	_, err := f.service.Create(ctx, owner, "mine-private", false, "a.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, owner, "mine-public", true, "b.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, other, "theirs", true, "c.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)

	public, err := f.service.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 2)

	mine, err := f.service.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestVolsegGetAnnotations(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{
		"volume.lattice":   "x",
		"annotations.json": `{"entry_id":"emd-1832","segment_annotations":[{"segment_id":"1","annotations":[{"type":"pdb","id":"1tqn"}]}]}`,
	})
	entry, err := f.service.Create(ctx, owner, "annotated", false, "a.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)

	annotations, err := f.service.GetAnnotations(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "emd-1832", annotations.EntryID)
	require.Len(t, annotations.SegmentAnnotations, 1)
	assert.Equal(t, "pdb", annotations.SegmentAnnotations[0].Annotations[0].Type)
}

func TestVolsegGetAnnotationsMissing(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"volume.lattice": "x"})
	entry, err := f.service.Create(ctx, owner, "bare", false, "a.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = f.service.GetAnnotations(ctx, owner, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVolsegDeleteOwnerOnly(t *testing.T) {
	f := newVolsegFixture(t)
	owner := testUser(1 << 20)
	other := testUser(1 << 20)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"volume.lattice": "x"})
	entry, err := f.service.Create(ctx, owner, "public", true, "a.cvsx", bytes.NewReader(raw))
	require.NoError(t, err)

	err = f.service.Delete(ctx, other, entry.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.service.Delete(ctx, owner, entry.ID))

	_, err = f.service.Get(ctx, owner, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := f.store.Exists(ctx, entry.CvsxFilepath)
	require.NoError(t, err)
	assert.False(t, exists)
}
